package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/inject"
)

type serviceEntry struct {
	Service    domain.ServiceIdentity `json:"service"`
	Title      string                 `json:"title"`
	Primary    string                 `json:"primary"`
	Secondary  string                 `json:"secondary"`
	Configured bool                   `json:"configured"`
	Keys       map[domain.Slot]string `json:"settings_keys"`
	Profile    inject.Profile         `json:"profile"`
}

func newServiceEntry(id domain.ServiceIdentity, pair domain.EndpointPair) serviceEntry {
	keys := make(map[domain.Slot]string, 2)
	for _, slot := range domain.Slots() {
		keys[slot] = id.SettingsKey(slot)
	}
	return serviceEntry{
		Service:    id,
		Title:      id.Title(),
		Primary:    pair.Primary,
		Secondary:  pair.Secondary,
		Configured: !pair.IsEmpty(),
		Keys:       keys,
		Profile:    inject.ProfileFor(id),
	}
}

// Services lists every dashboard with its configured candidates.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.MemoryIndex.Snapshot()
		entries := make([]serviceEntry, 0, len(domain.AllServices()))
		for _, id := range domain.AllServices() {
			entries = append(entries, newServiceEntry(id, snap.Pair(id)))
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
