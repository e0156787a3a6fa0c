package handler

import (
	"net/http"

	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.registered", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, newUserView(user))
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userView `json:"user"`
}

// Login accepts either the email or the username as identifier.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, user, err := h.auth.Login(r.Context(), req.Identifier, req.Password, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.logged_in", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUserView(user),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	raw, _ := middleware.TokenFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), raw, user, middleware.ClientMeta(r)); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.logged_out", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}
