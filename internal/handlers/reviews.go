package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviews, err := h.reviews.ListAll(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, reviews, http.StatusOK)
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	reviews, err := h.reviews.List(r.Context(), userID, kind)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, reviews, http.StatusOK)
}

// Get answers 404 when the caller has not reviewed the item.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	review, err := h.reviews.Get(r.Context(), userID, kind, mediaID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	if review == nil {
		utils.RespondError(w, r, services.ErrNotFound)
		return
	}
	utils.RespondJSON(w, review, http.StatusOK)
}

func (h *ReviewHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	var req types.SaveReviewRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	review, err := h.reviews.Save(r.Context(), userID, kind, mediaID, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, review, http.StatusOK)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), userID, kind, mediaID); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
