package domain

import "strings"

// EndpointPair holds the two candidate URLs configured for one service.
// An empty (or blank) value means the candidate is absent.
type EndpointPair struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Get returns the raw value stored in slot.
func (p EndpointPair) Get(slot Slot) string {
	if slot == SlotSecondary {
		return p.Secondary
	}
	return p.Primary
}

// Set returns a copy of p with slot replaced by value.
func (p EndpointPair) Set(slot Slot, value string) EndpointPair {
	if slot == SlotSecondary {
		p.Secondary = value
	} else {
		p.Primary = value
	}
	return p
}

// Has reports whether slot carries a non-blank value.
func (p EndpointPair) Has(slot Slot) bool {
	return strings.TrimSpace(p.Get(slot)) != ""
}

// IsEmpty reports whether neither candidate is configured.
func (p EndpointPair) IsEmpty() bool {
	return !p.Has(SlotPrimary) && !p.Has(SlotSecondary)
}

// Snapshot is an immutable view of the endpoint configuration of every
// service. Settings backends build one; the resolver reads one per call.
type Snapshot struct {
	pairs map[ServiceIdentity]EndpointPair
}

// NewSnapshot copies pairs into a new snapshot. Unknown identities are dropped.
func NewSnapshot(pairs map[ServiceIdentity]EndpointPair) Snapshot {
	cp := make(map[ServiceIdentity]EndpointPair, len(pairs))
	for id, pair := range pairs {
		if id.Valid() {
			cp[id] = pair
		}
	}
	return Snapshot{pairs: cp}
}

// SnapshotFromValues builds a snapshot from flat settings keys
// ("jelly_primary" -> "http://..."). Unknown keys are ignored.
func SnapshotFromValues(values map[string]string) Snapshot {
	pairs := make(map[ServiceIdentity]EndpointPair, len(serviceTable))
	for key, value := range values {
		id, slot, ok := ParseSettingsKey(key)
		if !ok {
			continue
		}
		pairs[id] = pairs[id].Set(slot, value)
	}
	return Snapshot{pairs: pairs}
}

// Pair returns the pair configured for id (zero value if none).
func (s Snapshot) Pair(id ServiceIdentity) EndpointPair {
	return s.pairs[id]
}

// With returns a copy of s where id is mapped to pair.
func (s Snapshot) With(id ServiceIdentity, pair EndpointPair) Snapshot {
	next := make(map[ServiceIdentity]EndpointPair, len(s.pairs)+1)
	for k, v := range s.pairs {
		next[k] = v
	}
	if id.Valid() {
		next[id] = pair
	}
	return Snapshot{pairs: next}
}

// Configured returns how many services have at least one candidate.
func (s Snapshot) Configured() int {
	n := 0
	for _, pair := range s.pairs {
		if !pair.IsEmpty() {
			n++
		}
	}
	return n
}

// Values flattens the snapshot into settings keys, one entry per slot of
// every known service (absent candidates map to "").
func (s Snapshot) Values() map[string]string {
	values := make(map[string]string, len(serviceTable)*2)
	for _, id := range AllServices() {
		pair := s.pairs[id]
		for _, slot := range Slots() {
			values[id.SettingsKey(slot)] = pair.Get(slot)
		}
	}
	return values
}
