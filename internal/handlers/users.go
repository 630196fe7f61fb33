package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

type UserHandler struct {
	profiles    *services.ProfileService
	preferences *services.PreferenceService
	stats       *services.StatsService
	collections *services.CollectionService
}

func NewUserHandler(svc *services.Services) *UserHandler {
	return &UserHandler{
		profiles:    svc.Profiles,
		preferences: svc.Preferences,
		stats:       svc.Stats,
		collections: svc.Collections,
	}
}

func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, profile, http.StatusOK)
}

func (h *UserHandler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.UpdateProfileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	profile, err := h.profiles.Update(r.Context(), userID, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, profile, http.StatusOK)
}

func (h *UserHandler) GetUserPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	prefs, err := h.preferences.Get(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, prefs, http.StatusOK)
}

func (h *UserHandler) UpdateUserPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.UpdatePreferencesRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	prefs, err := h.preferences.Update(r.Context(), userID, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, prefs, http.StatusOK)
}

// targetUser resolves the user a /me or /users/{id} route is about.
func targetUser(r *http.Request, viewerID string) string {
	if id := utils.GetPathParam(r, "id"); id != "" {
		return id
	}
	return viewerID
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.profiles.GetByID(r.Context(), viewerID, utils.GetPathParam(r, "id"))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, profile, http.StatusOK)
}

func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.stats.Stats(r.Context(), viewerID, targetUser(r, viewerID))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, stats, http.StatusOK)
}

func (h *UserHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	fav, err := h.stats.Favorites(r.Context(), viewerID, targetUser(r, viewerID))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, fav, http.StatusOK)
}

func (h *UserHandler) GetUserCollections(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	collections, err := h.collections.ListPublic(r.Context(), viewerID, utils.GetPathParam(r, "id"))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, collections, http.StatusOK)
}
