package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/utils"
)

// renderParam names attributes to convert from markdown. It is consumed
// here and never forwarded to the CMS.
const renderParam = "render"

type attributes = map[string]any

// forwardQuery splits the browser query into the part sent to the CMS and
// the attributes to render.
func forwardQuery(r *http.Request) ([]apiclient.CallOption, []string) {
	render := r.URL.Query()[renderParam]

	// Query().Encode() would re-escape the brackets of filters[title][$eq]
	// and sort keys, so the raw string is filtered instead.
	raw := r.URL.RawQuery
	if len(render) > 0 {
		raw = dropParam(raw, renderParam)
	}
	if raw == "" {
		return nil, render
	}
	return []apiclient.CallOption{apiclient.WithQuery(apiclient.RawQuery(raw))}, render
}

func dropParam(raw, name string) string {
	kept := make([]byte, 0, len(raw))
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == name {
			continue
		}
		if len(kept) > 0 {
			kept = append(kept, '&')
		}
		kept = append(kept, pair...)
	}
	return string(kept)
}

func (h *Handler) render(attrs attributes, names []string) {
	for _, name := range names {
		h.renderer.RenderAttribute(attrs, name)
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	opts, render := forwardQuery(r)

	resp, err := apiclient.Find[attributes](r.Context(), c, chi.URLParam(r, "contentType"), nil, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range resp.Data {
		h.render(resp.Data[i].Attributes, render)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) FindOne(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	opts, render := forwardQuery(r)

	resp, err := apiclient.FindOne[attributes](r.Context(), c, chi.URLParam(r, "contentType"), chi.URLParam(r, "id"), nil, opts...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(resp.Data.Attributes, render)
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var body api.Payload[json.RawMessage]
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp, err := apiclient.Create[attributes](r.Context(), c, chi.URLParam(r, "contentType"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var body api.Payload[json.RawMessage]
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp, err := apiclient.Update[attributes](r.Context(), c, chi.URLParam(r, "contentType"), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	resp, err := apiclient.Delete[attributes](r.Context(), c, chi.URLParam(r, "contentType"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
