package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/utils"
)

// signInResponse never carries the jwt: it stays in the session.
type signInResponse struct {
	User apiclient.FetchResult `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.LoginRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := c.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, signInResponse{User: result.User})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.RegisterRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := c.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, signInResponse{User: result.User})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.ResetPasswordRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := c.ResetPassword(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, signInResponse{User: result.User})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.ForgotPasswordRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := c.ForgotPassword(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "If the address is registered, a reset link is on its way"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.ChangePasswordRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := c.ChangePassword(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password changed"})
}

func (h *Handler) SendEmailConfirmation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.EmailConfirmationRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := c.SendEmailConfirmation(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "Confirmation email sent"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me refreshes the current user from the CMS. Without a valid session it
// answers 401 with the (possibly cached) profile so the page can still
// greet a returning user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	writeFetchResult(w, c.FetchUser(r.Context()))
}

func (h *Handler) AdminMe(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	writeFetchResult(w, c.FetchAdmin(r.Context()))
}

func writeFetchResult(w http.ResponseWriter, result apiclient.FetchResult) {
	status := http.StatusOK
	switch result.Status {
	case apiclient.FetchOK:
	case apiclient.FetchAborted:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusUnauthorized
	}
	utils.WriteJSON(w, status, result)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var req api.AdminLoginRequest
	if err := utils.Decode(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := c.AdminLogin(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, signInResponse{User: result.User})
}

// RenewToken refreshes an admin session token.
func (h *Handler) RenewToken(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if _, ok := c.Token(r.Context()); !ok {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return
	}
	if _, err := c.RenewToken(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProviderConnect redirects the browser to the CMS provider login.
func (h *Handler) ProviderConnect(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")
	http.Redirect(w, r, c.ProviderAuthenticationURL(provider), http.StatusFound)
}

// ProviderCallback completes a provider login with the access_token the
// provider appended to the redirect.
func (h *Handler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	accessToken := r.URL.Query().Get("access_token")
	if accessToken == "" {
		http.Error(w, "access_token is required", http.StatusBadRequest)
		return
	}

	result, err := c.AuthenticateProvider(r.Context(), chi.URLParam(r, "provider"), accessToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, signInResponse{User: result.User})
}
