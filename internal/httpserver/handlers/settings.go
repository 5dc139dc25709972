package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

const maxSettingsBody = 16 << 10

// settingsRequest is the body of PUT /api/settings/{service}.
// A missing field keeps the stored value; an empty string clears it.
type settingsRequest struct {
	Primary   *string `json:"primary"`
	Secondary *string `json:"secondary"`
}

// SaveSettings persists the candidates of one service and swaps them into
// the in-memory snapshot. Values are stored verbatim.
func SaveSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}

		var req settingsRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		var pair domain.EndpointPair
		snap, err := d.MemoryIndex.Edit(id, func(current domain.EndpointPair) domain.EndpointPair {
			if req.Primary != nil {
				current = current.Set(domain.SlotPrimary, *req.Primary)
			}
			if req.Secondary != nil {
				current = current.Set(domain.SlotSecondary, *req.Secondary)
			}
			pair = current
			return current
		}, func(p domain.EndpointPair) error {
			return d.Store.Save(r.Context(), id, p)
		})
		if err != nil {
			d.Logger.Error("failed to save settings",
				logger.String("service", id.Slug()),
				logger.String("backend", d.Store.Name()),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}

		d.Logger.Info("settings updated",
			logger.String("service", id.Slug()),
			logger.String("backend", d.Store.Name()),
			logger.Bool("configured", !pair.IsEmpty()))

		writeJSON(w, http.StatusOK, newServiceEntry(id, snap.Pair(id)))
	}
}
