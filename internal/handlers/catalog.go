package handlers

import (
	"net/http"

	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

// CatalogHandler serves the external movie, series and game catalogs. The
// routes do not require a signed-in user.
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	query := utils.GetQueryParam(r, "q", "")
	page := utils.GetQueryParamInt(r, "page", 1)

	results, err := h.catalog.Search(r.Context(), kind, query, page)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, results, http.StatusOK)
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	list := types.CatalogList(utils.GetPathParam(r, "list"))
	page := utils.GetQueryParamInt(r, "page", 1)
	window := utils.GetQueryParam(r, "window", "week")

	results, err := h.catalog.List(r.Context(), kind, list, page, window)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, results, http.StatusOK)
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	genres, err := h.catalog.Genres(r.Context(), kind)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, genres, http.StatusOK)
}

func (h *CatalogHandler) Discover(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	filter := types.DiscoverFilter{
		Page:      utils.GetQueryParamInt(r, "page", 1),
		SortBy:    utils.GetQueryParam(r, "sort_by", ""),
		Genres:    utils.GetQueryParam(r, "genres", ""),
		Platforms: utils.GetQueryParam(r, "platforms", ""),
		DateFrom:  utils.GetQueryParam(r, "date_from", ""),
		DateTo:    utils.GetQueryParam(r, "date_to", ""),
		MinRating: utils.GetQueryParamFloat(r, "min_rating", 0),
		MinVotes:  utils.GetQueryParamInt(r, "min_votes", 0),
	}
	results, err := h.catalog.Discover(r.Context(), kind, filter)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, results, http.StatusOK)
}

func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	id, err := utils.GetPathParamInt(r, "id")
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	details, err := h.catalog.Details(r.Context(), kind, id)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.RespondJSON(w, details, http.StatusOK)
}
