package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

type WatchlistHandler struct {
	watchlist *services.WatchlistService
}

func NewWatchlistHandler(watchlist *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

// List returns the caller's watchlist, optionally narrowed by ?kind=.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var kind types.MediaKind
	if raw := utils.GetQueryParam(r, "kind", ""); raw != "" {
		k, err := types.ParseMediaKind(raw)
		if err != nil {
			utils.RespondError(w, r, services.ErrInvalidInput)
			return
		}
		kind = k
	}
	entries, err := h.watchlist.List(r.Context(), userID, kind)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, entries, http.StatusOK)
}

func (h *WatchlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	in, err := h.watchlist.Contains(r.Context(), userID, kind, mediaID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, map[string]bool{"in_watchlist": in}, http.StatusOK)
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	var req types.AddToWatchlistRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	entry, err := h.watchlist.Add(r.Context(), userID, kind, mediaID, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, entry, http.StatusOK)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	if err := h.watchlist.Remove(r.Context(), userID, kind, mediaID); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
