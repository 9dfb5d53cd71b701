// Package handler serves the browser-facing proxy in front of the CMS.
package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/errors"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/middleware"
	"github.com/itchan-dev/strapikit/shared/richtext"
	"github.com/itchan-dev/strapikit/shared/utils"
	"github.com/itchan-dev/strapikit/shared/validation"
)

type Handler struct {
	cfg      config.Public
	renderer *richtext.Renderer
}

func New(cfg config.Public, renderer *richtext.Renderer) *Handler {
	return &Handler{cfg: cfg, renderer: renderer}
}

// client returns the session-bound client or answers 500.
func (h *Handler) client(w http.ResponseWriter, r *http.Request) (*apiclient.APIClient, bool) {
	c := middleware.ClientFromContext(r.Context())
	if c == nil {
		logger.Log.Error("no session client in request context", "path", r.URL.Path)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return nil, false
	}
	return c, true
}

// writeError mirrors CMS errors and maps local failures to a status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case stderrors.As(err, &validationErrs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case stderrors.Is(err, validation.ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case stderrors.Is(err, validation.ErrNotMultipart),
		stderrors.Is(err, validation.ErrNoFiles),
		stderrors.Is(err, apiclient.ErrNoFileSelected),
		stderrors.Is(err, apiclient.ErrNoFilesSelected):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case stderrors.Is(err, apiclient.ErrInvalidEnvelope):
		logger.Log.Error("unexpected CMS response", "path", r.URL.Path, "error", err)
		http.Error(w, "Bad gateway", http.StatusBadGateway)
	default:
		if _, ok := errors.StatusCode(err); ok {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		if r.Context().Err() == nil {
			logger.Log.Error("CMS request failed", "path", r.URL.Path, "error", err)
		}
		http.Error(w, "CMS unavailable", http.StatusBadGateway)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
