// Package handlers exposes the services over HTTP.
package handlers

import (
	"fmt"
	"net/http"

	"popstack/internal/auth"
	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

// requireUser returns the caller id, answering 401 when there is none.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserID(r.Context())
	if id == "" {
		utils.RespondError(w, r, services.ErrNotAuthenticated)
		return "", false
	}
	return id, true
}

func kindParam(r *http.Request) (types.MediaKind, error) {
	kind, err := types.ParseMediaKind(utils.GetPathParam(r, "kind"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return kind, nil
}

// mediaParams reads the {kind}/{mediaId} pair used by per-item routes.
func mediaParams(r *http.Request) (types.MediaKind, int, error) {
	kind, err := kindParam(r)
	if err != nil {
		return "", 0, err
	}
	id, err := utils.GetPathParamInt(r, "mediaId")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
