package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownService is returned when a slug does not name a managed dashboard.
var ErrUnknownService = errors.New("unknown service")

// ServiceIdentity names one of the managed web dashboards.
//
// The set is closed: a new dashboard is a new variant here, never a free-form
// string passed around by callers.
type ServiceIdentity int

const (
	Jellyseerr ServiceIdentity = iota + 1
	Radarr
	Sonarr
	SABnzbd
	StorageConsole
)

// Slot selects one of the two candidate URLs of a service.
type Slot string

const (
	SlotPrimary   Slot = "primary"
	SlotSecondary Slot = "secondary"
)

// Slots returns the candidate slots in probe order.
func Slots() []Slot {
	return []Slot{SlotPrimary, SlotSecondary}
}

type serviceMeta struct {
	// slug is the path segment and the JSON value of the identity.
	slug string
	// keyPrefix prefixes the persisted settings keys (jelly_primary, ...).
	keyPrefix string
	// title is the human readable name.
	title string
}

var serviceTable = map[ServiceIdentity]serviceMeta{
	Jellyseerr:     {slug: "jellyseerr", keyPrefix: "jelly", title: "Jellyseerr"},
	Radarr:         {slug: "radarr", keyPrefix: "radarr", title: "Radarr"},
	Sonarr:         {slug: "sonarr", keyPrefix: "sonarr", title: "Sonarr"},
	SABnzbd:        {slug: "sabnzbd", keyPrefix: "sabnzbd", title: "SABnzbd"},
	StorageConsole: {slug: "ugreen", keyPrefix: "ugreen", title: "Ugreen"},
}

// aliases maps alternate slugs and key prefixes onto identities.
// "uvs" is the name later builds used for the storage console.
var aliases = map[string]ServiceIdentity{
	"jelly": Jellyseerr,
	"uvs":   StorageConsole,
}

// AllServices returns every identity in display order.
func AllServices() []ServiceIdentity {
	return []ServiceIdentity{Jellyseerr, Radarr, Sonarr, SABnzbd, StorageConsole}
}

// Valid reports whether s is one of the known variants.
func (s ServiceIdentity) Valid() bool {
	_, ok := serviceTable[s]
	return ok
}

// Slug returns the lowercase path identifier (e.g. "sabnzbd").
func (s ServiceIdentity) Slug() string {
	return serviceTable[s].slug
}

// Title returns the display name (e.g. "SABnzbd").
func (s ServiceIdentity) Title() string {
	return serviceTable[s].title
}

func (s ServiceIdentity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ServiceIdentity(%d)", int(s))
	}
	return s.Title()
}

// SettingsKey returns the persisted key for a slot.
// Example: Jellyseerr + primary -> "jelly_primary"
func (s ServiceIdentity) SettingsKey(slot Slot) string {
	return serviceTable[s].keyPrefix + "_" + string(slot)
}

// MarshalText encodes the identity as its slug.
func (s ServiceIdentity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownService, int(s))
	}
	return []byte(s.Slug()), nil
}

// UnmarshalText decodes a slug or alias.
func (s *ServiceIdentity) UnmarshalText(text []byte) error {
	id, err := ParseServiceIdentity(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// ParseServiceIdentity maps a slug (case-insensitive) or alias to an identity.
func ParseServiceIdentity(raw string) (ServiceIdentity, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	for id, meta := range serviceTable {
		if meta.slug == slug {
			return id, nil
		}
	}
	if id, ok := aliases[slug]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownService, raw)
}

// ParseSettingsKey splits a persisted key such as "radarr_secondary".
// Keys for unknown services or slots report ok=false.
func ParseSettingsKey(key string) (ServiceIdentity, Slot, bool) {
	idx := strings.LastIndexByte(key, '_')
	if idx <= 0 || idx == len(key)-1 {
		return 0, "", false
	}

	slot := Slot(strings.ToLower(key[idx+1:]))
	if slot != SlotPrimary && slot != SlotSecondary {
		return 0, "", false
	}

	prefix := strings.ToLower(key[:idx])
	for id, meta := range serviceTable {
		if meta.keyPrefix == prefix {
			return id, slot, true
		}
	}
	if id, err := ParseServiceIdentity(prefix); err == nil {
		return id, slot, true
	}
	return 0, "", false
}
