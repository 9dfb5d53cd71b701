package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

// ValidateAndParseMultipart caps the request body at maxSize and parses the
// multipart form. Exceeding the cap resets the connection, which browsers
// report as a network error.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return fmt.Errorf("%w: %v", ErrNotMultipart, err)
		}
		return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
	}
	return nil
}

// UploadedFiles returns the file headers sent under field.
func UploadedFiles(form *multipart.Form, field string) ([]*multipart.FileHeader, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, ErrNoFiles
	}
	return form.File[field], nil
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
