package homepage

import (
	"testing"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

func TestMapperMapSnapshot(t *testing.T) {
	config, err := NewLoader(writeServices(t, servicesYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := NewMapper().MapSnapshot(config)

	tests := []struct {
		service domain.ServiceIdentity
		want    domain.EndpointPair
	}{
		{
			service: domain.Jellyseerr,
			want:    domain.EndpointPair{Primary: "http://10.0.0.5:5055", Secondary: "https://requests.example.com"},
		},
		{
			service: domain.Radarr,
			want:    domain.EndpointPair{Primary: "http://10.0.0.6:7878", Secondary: "https://radarr.example.com"},
		},
		{
			// href equals the widget url: only one candidate
			service: domain.SABnzbd,
			want:    domain.EndpointPair{Primary: "http://10.0.0.9:8080"},
		},
		{
			service: domain.Sonarr,
			want:    domain.EndpointPair{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.service.Slug(), func(t *testing.T) {
			if got := snap.Pair(tt.service); got != tt.want {
				t.Errorf("Pair() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if snap.Configured() != 3 {
		t.Errorf("Configured() = %d, want 3", snap.Configured())
	}
}

func TestMapperFirstEntryWins(t *testing.T) {
	config := ServicesConfig{
		{
			"Media": []map[string]ServiceProps{
				{"Sonarr": {Href: "https://sonarr.example.com"}},
				{"Sonarr Anime": {Href: "https://anime.example.com"}},
			},
		},
	}

	snap := NewMapper().MapSnapshot(config)
	if got := snap.Pair(domain.Sonarr).Primary; got != "https://sonarr.example.com" {
		t.Errorf("Sonarr primary = %q, want the first entry", got)
	}
}

func TestMapperAliases(t *testing.T) {
	config := ServicesConfig{
		{
			"NAS": []map[string]ServiceProps{
				{"UVS": {Href: "https://nas.example.com", SiteMonitor: "http://10.0.0.2:9999"}},
			},
		},
	}

	snap := NewMapper().MapSnapshot(config)
	want := domain.EndpointPair{Primary: "http://10.0.0.2:9999", Secondary: "https://nas.example.com"}
	if got := snap.Pair(domain.StorageConsole); got != want {
		t.Errorf("StorageConsole = %+v, want %+v", got, want)
	}
}

func TestMapperMapSnapshotEmptyConfig(t *testing.T) {
	snap := NewMapper().MapSnapshot(ServicesConfig{})
	if snap.Configured() != 0 {
		t.Errorf("Configured() = %d, want 0", snap.Configured())
	}
}
