package handler

import (
	"net/http"

	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/service"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, newUserView(user))
}

type updateProfileRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.auth.UpdateProfile(r.Context(), user, req.Email, req.Username, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newUserView(updated))
}
