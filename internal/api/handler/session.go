package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/enzo-projet/zogames/internal/api/apierr"
	"github.com/enzo-projet/zogames/internal/api/response"
	"github.com/enzo-projet/zogames/internal/fanout"
	"github.com/enzo-projet/zogames/internal/model"
)

// SessionHandler serves session snapshots over plain HTTP. Clients told to
// re-fetch by a change notice read the same composite view the fanout
// broadcasts.
type SessionHandler struct {
	fanout *fanout.Fanout
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(fan *fanout.Fanout) *SessionHandler {
	return &SessionHandler{fanout: fan}
}

// Get handles GET /api/v1/sessions/{kind}/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := model.GameKind(vars["kind"])
	code := model.SessionCode(vars["code"])

	snapshot, err := h.fanout.Snapshot(r.Context(), kind, code)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snapshot)
}
