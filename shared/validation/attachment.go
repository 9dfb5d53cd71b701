package validation

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultMimeType = "application/octet-stream"

// DetectMimeType returns declared unless it is empty or generic, in which
// case the type is guessed from the file extension.
func DetectMimeType(filename, declared string) string {
	if declared != "" && declared != defaultMimeType {
		return declared
	}
	if detected := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); detected != "" {
		return detected
	}
	return defaultMimeType
}
