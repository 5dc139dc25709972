package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/config"
	"github.com/MrSnakeDoc/arrcenter/internal/display"
	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/views"
	"github.com/MrSnakeDoc/arrcenter/internal/index"
	"github.com/MrSnakeDoc/arrcenter/internal/inject"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
	"github.com/MrSnakeDoc/arrcenter/internal/resolver"
)

// memStore is an in-memory settings backend.
type memStore struct {
	mu      sync.Mutex
	snap    domain.Snapshot
	saveErr error
}

func (m *memStore) Name() string { return "memory" }

func (m *memStore) Load(ctx context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = m.snap.With(id, pair)
	return nil
}

func (m *memStore) Close() error { return nil }

type fixture struct {
	router  http.Handler
	index   *index.MemoryIndex
	store   *memStore
	trigger chan struct{}
}

func newFixture(t *testing.T, values map[string]string) *fixture {
	t.Helper()
	return buildFixture(t, values, true)
}

func buildFixture(t *testing.T, values map[string]string, loaded bool) *fixture {
	t.Helper()

	log := logger.NewNop()
	cfg := &config.Config{
		RequestTimeout: 5 * time.Second,
		ProbeTimeout:   300 * time.Millisecond,
		RateBurst:      100,
		RatePerMin:     600,
	}

	store := &memStore{snap: domain.SnapshotFromValues(values)}
	idx := index.NewMemoryIndex()
	if loaded {
		idx.Replace(store.snap, store.Name())
	}

	res := resolver.New(resolver.NewHTTPProber(cfg.ProbeTimeout, false), log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pages, err := views.NewTemplates()
	if err != nil {
		t.Fatalf("NewTemplates() error = %v", err)
	}

	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		Version:       "test",
		TimeNow:       time.Now,
		MemoryIndex:   idx,
		Store:         store,
		Resolver:      res,
		Display:       display.NewController(ctx, res, idx, log),
		ProbeTimeout:  cfg.ProbeTimeout,
		Pages:         pages,
		ReloadTrigger: trigger,
	}

	return &fixture{
		router:  NewRouter(cfg, log, d),
		index:   idx,
		store:   store,
		trigger: trigger,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func dashboard(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestHealthzAndReadyz(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200 once loaded", rec.Code)
	}
}

func TestReadyzBeforeLoad(t *testing.T) {
	f := buildFixture(t, nil, false)

	rec := f.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rec.Code)
	}
}

func TestResolvePrimary(t *testing.T) {
	primary := dashboard(t, http.StatusOK)
	f := newFixture(t, map[string]string{
		"jelly_primary":   primary.URL,
		"jelly_secondary": "https://jelly.example.invalid",
	})

	rec := f.do(t, http.MethodGet, "/api/resolve/jellyseerr", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res domain.ResolutionResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.State != domain.StateResolved || res.URL != primary.URL {
		t.Errorf("result = %s %q, want resolved %q", res.State, res.URL, primary.URL)
	}
	if len(res.Attempts) != 1 {
		t.Errorf("attempts = %d, secondary must not be probed", len(res.Attempts))
	}
}

func TestResolveFallbackAndUnknown(t *testing.T) {
	secondary := dashboard(t, http.StatusFound)
	f := newFixture(t, map[string]string{
		"radarr_primary":   deadURL(t),
		"radarr_secondary": secondary.URL,
	})

	rec := f.do(t, http.MethodGet, "/api/resolve/Radarr", "")
	var res domain.ResolutionResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.URL != secondary.URL || res.Slot != domain.SlotSecondary {
		t.Errorf("result = %+v, want secondary", res)
	}

	rec = f.do(t, http.MethodGet, "/api/resolve/plex", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown service status = %d, want 404", rec.Code)
	}
}

func TestResolveAll(t *testing.T) {
	up := dashboard(t, http.StatusOK)
	f := newFixture(t, map[string]string{
		"sonarr_primary":  up.URL,
		"sabnzbd_primary": deadURL(t),
	})

	rec := f.do(t, http.MethodGet, "/api/resolve", "")
	var results []domain.ResolutionResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != len(domain.AllServices()) {
		t.Fatalf("results = %d, want one per service", len(results))
	}

	want := map[domain.ServiceIdentity]domain.ResolutionState{
		domain.Jellyseerr:     domain.StateNotConfigured,
		domain.Radarr:         domain.StateNotConfigured,
		domain.Sonarr:         domain.StateResolved,
		domain.SABnzbd:        domain.StateUnreachable,
		domain.StorageConsole: domain.StateNotConfigured,
	}
	for _, res := range results {
		if res.State != want[res.Service] {
			t.Errorf("%s: state = %s, want %s", res.Service, res.State, want[res.Service])
		}
	}
}

func TestOpenRedirects(t *testing.T) {
	up := dashboard(t, http.StatusOK)
	f := newFixture(t, map[string]string{"ugreen_primary": up.URL})

	rec := f.do(t, http.MethodGet, "/open/uvs", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != up.URL {
		t.Errorf("Location = %q, want %q", loc, up.URL)
	}

	rec = f.do(t, http.MethodGet, "/api/view/ugreen", "")
	var view display.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Phase != display.PhaseContent || view.URL != up.URL {
		t.Errorf("view = %s %q, want content", view.Phase, view.URL)
	}
}

func TestOpenErrorPage(t *testing.T) {
	f := newFixture(t, map[string]string{"sabnzbd_primary": deadURL(t)})

	rec := f.do(t, http.MethodGet, "/open/sabnzbd", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SABnzbd is unreachable") {
		t.Error("error page should name the service")
	}
	if !strings.Contains(body, "/open/sabnzbd?retry=1") {
		t.Error("error page should offer a retry link")
	}

	rec = f.do(t, http.MethodGet, "/open/radarr?retry=1", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "radarr_primary") {
		t.Errorf("not configured page: status = %d", rec.Code)
	}
}

func TestSaveSettings(t *testing.T) {
	up := dashboard(t, http.StatusOK)
	f := newFixture(t, map[string]string{"sonarr_secondary": "https://sonarr.example.com"})

	rec := f.do(t, http.MethodPut, "/api/settings/sonarr", `{"primary":"`+up.URL+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	pair := f.index.Pair(domain.Sonarr)
	if pair.Primary != up.URL || pair.Secondary != "https://sonarr.example.com" {
		t.Errorf("index pair = %+v", pair)
	}
	if got := f.store.snap.Pair(domain.Sonarr).Primary; got != up.URL {
		t.Errorf("stored primary = %q", got)
	}

	// The next resolution sees the new snapshot.
	rec = f.do(t, http.MethodGet, "/open/sonarr", "")
	if rec.Code != http.StatusFound {
		t.Errorf("open after save: status = %d, want 302", rec.Code)
	}
}

func TestSaveSettingsErrors(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(t, http.MethodPut, "/api/settings/radarr", `{"primary":`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodPut, "/api/settings/radarr", `{"tertiary":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d, want 400", rec.Code)
	}

	f.store.saveErr = errors.New("disk full")
	if rec := f.do(t, http.MethodPut, "/api/settings/radarr", `{"primary":"http://10.0.0.6:7878"}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("backend failure: status = %d, want 500", rec.Code)
	}
	if !f.index.Pair(domain.Radarr).IsEmpty() {
		t.Error("index must not change when the backend write fails")
	}
}

func TestSaveSettingsConcurrentSlots(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, body := range []string{
		`{"primary":"http://sonarr.lan:8989"}`,
		`{"secondary":"https://sonarr.example.com"}`,
	} {
		i, body := i, body
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = f.do(t, http.MethodPut, "/api/settings/sonarr", body).Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, code)
		}
	}

	want := domain.EndpointPair{Primary: "http://sonarr.lan:8989", Secondary: "https://sonarr.example.com"}
	if got := f.index.Pair(domain.Sonarr); got != want {
		t.Errorf("index pair = %+v, want %+v", got, want)
	}
	if got := f.store.snap.Pair(domain.Sonarr); got != want {
		t.Errorf("stored pair = %+v, want %+v", got, want)
	}
}

func TestServicesAndInject(t *testing.T) {
	f := newFixture(t, map[string]string{"jelly_primary": "http://10.0.0.5:5055"})

	rec := f.do(t, http.MethodGet, "/api/services", "")
	var entries []struct {
		Service    domain.ServiceIdentity `json:"service"`
		Primary    string                 `json:"primary"`
		Configured bool                   `json:"configured"`
		Profile    inject.Profile         `json:"profile"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 5 || entries[0].Service != domain.Jellyseerr || !entries[0].Configured {
		t.Errorf("entries = %+v", entries)
	}
	if entries[3].Profile.UserAgent != inject.DesktopUserAgent {
		t.Error("SABnzbd profile should carry the desktop user agent")
	}

	rec = f.do(t, http.MethodGet, "/inject/sabnzbd.js", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("inject status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), inject.ViewportJS) {
		t.Error("SABnzbd snippet should force the viewport")
	}
	if rec.Header().Get("X-Arrcenter-User-Agent") != inject.DesktopUserAgent {
		t.Error("SABnzbd snippet should advertise the desktop user agent")
	}
}

func TestViewLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/view/radarr", "")
	var view display.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Phase != display.PhaseIdle {
		t.Errorf("initial phase = %s, want idle", view.Phase)
	}

	rec = f.do(t, http.MethodPost, "/api/view/radarr", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d, want 202", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = f.do(t, http.MethodGet, "/api/view/radarr", "")
		if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if view.Phase == display.PhaseError {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("phase = %s, want error", view.Phase)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if view.Reason != domain.StateNotConfigured {
		t.Errorf("reason = %s, want not_configured", view.Reason)
	}

	rec = f.do(t, http.MethodPost, "/api/view/radarr/retry", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("retry status = %d, want 202", rec.Code)
	}
}

func TestReloadAndInfra(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(t, http.MethodPost, "/reload", ""); rec.Code != http.StatusAccepted {
		t.Errorf("first reload status = %d, want 202", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/reload", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("pending reload status = %d, want 429", rec.Code)
	}
	<-f.trigger

	rec := f.do(t, http.MethodGet, "/infra", "")
	var infra struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK      bool   `json:"ok"`
			Backend string `json:"backend"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&infra); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if infra.Mode != "ok" {
		t.Errorf("mode = %q, want ok", infra.Mode)
	}
	if infra.Components["settings"].Backend != "memory" {
		t.Errorf("settings backend = %q", infra.Components["settings"].Backend)
	}
}
