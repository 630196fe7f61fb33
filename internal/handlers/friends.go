package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

type FriendHandler struct {
	friends *services.FriendService
}

func NewFriendHandler(friends *services.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	friends, err := h.friends.Friends(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, friends, http.StatusOK)
}

func (h *FriendHandler) IncomingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requests, err := h.friends.IncomingRequests(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, requests, http.StatusOK)
}

func (h *FriendHandler) OutgoingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requests, err := h.friends.OutgoingRequests(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, requests, http.StatusOK)
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.SendFriendRequestRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	friendship, err := h.friends.SendRequest(r.Context(), userID, req.FriendID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	// A mutual request is accepted on the spot.
	status := http.StatusCreated
	if friendship.Status == types.FriendshipAccepted {
		status = http.StatusOK
	}
	utils.RespondJSON(w, friendship, status)
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	friendship, err := h.friends.Accept(r.Context(), userID, utils.GetPathParam(r, "id"))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, friendship, http.StatusOK)
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.friends.Reject(r.Context(), userID, utils.GetPathParam(r, "id")); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.friends.Remove(r.Context(), userID, utils.GetPathParam(r, "id")); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers backs the add-friend search box. Queries shorter than two
// characters return an empty list.
func (h *FriendHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	results, err := h.friends.SearchUsers(r.Context(), userID, utils.GetQueryParam(r, "q", ""))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, results, http.StatusOK)
}
