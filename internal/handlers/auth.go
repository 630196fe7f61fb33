package handlers

import (
	"net/http"

	"popstack/internal/auth"
	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

// AuthHandler signs in with the demo credentials. Real deployments
// authenticate against the identity provider and never mount it.
type AuthHandler struct {
	credentials auth.DemoCredentials
	profiles    *services.ProfileService
}

func NewAuthHandler(credentials auth.DemoCredentials, profiles *services.ProfileService) *AuthHandler {
	return &AuthHandler{credentials: credentials, profiles: profiles}
}

type loginResponse struct {
	User    auth.User      `json:"user"`
	Profile *types.Profile `json:"profile"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	user, ok := h.credentials.Authenticate(req.Email, req.Password)
	if !ok {
		utils.RespondError(w, r, services.ErrNotAuthenticated)
		return
	}
	profile, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, loginResponse{User: *user, Profile: profile}, http.StatusOK)
}
