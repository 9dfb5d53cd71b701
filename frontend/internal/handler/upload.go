package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/utils"
	"github.com/itchan-dev/strapikit/shared/validation"
)

const uploadField = "files"

// Upload re-streams a browser multipart upload to the CMS under the
// session's token. The relation fields ref, refId and field are optional
// but must come together.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	maxSize := h.cfg.Frontend.MaxUploadBytes
	if err := validation.ValidateAndParseMultipart(r, w, maxSize); err != nil {
		logger.Log.Debug("rejected upload", "limit_mb", validation.FormatSizeMB(maxSize), "error", err)
		writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers, err := validation.UploadedFiles(r.MultipartForm, uploadField)
	if err != nil {
		writeError(w, r, err)
		return
	}

	files := make([]apiclient.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.Log.Error("failed to open uploaded file", "filename", fh.Filename, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		files = append(files, apiclient.File{
			Name:        fh.Filename,
			ContentType: validation.DetectMimeType(fh.Filename, fh.Header.Get("Content-Type")),
			Body:        f,
		})
	}

	uploaded, err := c.Media().UploadMultiple(r.Context(), files, apiclient.UploadOptions{Info: fileInfo(r.MultipartForm)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, uploaded)
}

func fileInfo(form *multipart.Form) *api.FileInfo {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	info := &api.FileInfo{
		Ref:    value("ref"),
		RefId:  value("refId"),
		Field:  value("field"),
		Source: value("source"),
		Path:   value("path"),
	}
	if info.Ref == "" && info.RefId == "" && info.Field == "" {
		return nil
	}
	return info
}
