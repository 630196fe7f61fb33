package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

type CollectionHandler struct {
	collections *services.CollectionService
}

func NewCollectionHandler(collections *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

func (h *CollectionHandler) GetCollections(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	collections, err := h.collections.List(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, collections, http.StatusOK)
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.CreateCollectionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	collection, err := h.collections.Create(r.Context(), userID, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, collection, http.StatusCreated)
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	collection, err := h.collections.Get(r.Context(), userID, utils.GetPathParam(r, "id"))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, collection, http.StatusOK)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.UpdateCollectionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	collection, err := h.collections.Update(r.Context(), userID, utils.GetPathParam(r, "id"), req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, collection, http.StatusOK)
}

func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.collections.Delete(r.Context(), userID, utils.GetPathParam(r, "id")); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.AddCollectionItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	item, err := h.collections.AddItem(r.Context(), userID, utils.GetPathParam(r, "id"), req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, item, http.StatusCreated)
}

func (h *CollectionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	err := h.collections.RemoveItem(r.Context(), userID, utils.GetPathParam(r, "id"), utils.GetPathParam(r, "itemId"))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Containing lists the caller's collections that hold an item, for the
// "add to collection" menu.
func (h *CollectionHandler) Containing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	kind, mediaID, err := mediaParams(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	refs, err := h.collections.Containing(r.Context(), userID, kind, mediaID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, refs, http.StatusOK)
}
