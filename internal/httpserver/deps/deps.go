package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/display"
	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/views"
	"github.com/MrSnakeDoc/arrcenter/internal/index"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
	"github.com/MrSnakeDoc/arrcenter/internal/resolver"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time                // for testing, defaults to time.Now
	AllowedHosts  []string                        // Host headers allowed to access the server
	AllowedCIDRS  []string                        // IPs allowed to access the admin endpoints
	TrustProxy    bool                            // true if running behind a trusted reverse proxy (e.g., cloudflared)
	MemoryIndex   *index.MemoryIndex              // current settings snapshot
	Store         domain.SettingsStore            // settings backend, written by PUT /api/settings
	Resolver      *resolver.Resolver              // stateless endpoint resolver
	Display       *display.Controller             // per-service display state
	ProbeTimeout  time.Duration                   // per-candidate probe budget, reported by /infra
	ProbeLimit    func(http.Handler) http.Handler // shared rate limit for routes that send probes
	Pages         *views.Templates                // HTML pages of the display surface
	ReloadTrigger chan struct{}                   // Channel to trigger manual settings reload
}
