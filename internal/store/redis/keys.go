package redis

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

const (
	// KeyPrefixSettings is the prefix for endpoint setting keys
	KeyPrefixSettings = "arrcenter:settings:"
)

// SettingKey returns the Redis key holding one slot of a service.
// Example: arrcenter:settings:jelly_primary
func SettingKey(id domain.ServiceIdentity, slot domain.Slot) string {
	return KeyPrefixSettings + id.SettingsKey(slot)
}

// AllSettingKeys returns every setting key in a stable order
// (service display order, primary before secondary).
func AllSettingKeys() []string {
	keys := make([]string, 0, len(domain.AllServices())*2)
	for _, id := range domain.AllServices() {
		for _, slot := range domain.Slots() {
			keys = append(keys, SettingKey(id, slot))
		}
	}
	return keys
}

// ExtractSettingsKey strips the Redis prefix from a key.
func ExtractSettingsKey(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixSettings) || len(key) == len(KeyPrefixSettings) {
		return "", fmt.Errorf("invalid settings key: %s", key)
	}
	return key[len(KeyPrefixSettings):], nil
}
