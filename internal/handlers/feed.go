package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/utils"
)

type FeedHandler struct {
	activity *services.ActivityService
}

func NewFeedHandler(activity *services.ActivityService) *FeedHandler {
	return &FeedHandler{activity: activity}
}

func (h *FeedHandler) GetFriendsFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	feed, err := h.activity.FriendFeed(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, feed, http.StatusOK)
}
