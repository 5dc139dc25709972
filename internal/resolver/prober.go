package resolver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/utils"
)

// DefaultTimeout bounds each phase of a reachability probe.
const DefaultTimeout = 500 * time.Millisecond

// Phases is the number of probe phases bounded separately by the timeout:
// connect, TLS handshake and response headers.
const Phases = 3

// ErrInvalidURL is returned for candidates that cannot be requested at all.
var ErrInvalidURL = errors.New("invalid candidate url")

// Prober issues one reachability probe and reports the response status code.
// Implementations must honor ctx cancellation.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// ReachableStatus reports whether a status code counts as reachable: [200, 400).
// Redirects count as reachable even though they are never followed.
func ReachableStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusBadRequest
}

// HTTPProber probes candidates with a short-timeout GET.
// Only the status line matters; the body is never read.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber builds a prober whose connect, TLS handshake and response
// header timeouts all equal timeout. Each phase gets the full timeout, so a
// whole probe takes at most Phases*timeout. skipTLSVerify accepts self-signed
// dashboards, which is common on a LAN.
func NewHTTPProber(timeout time.Duration, skipTLSVerify bool) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPProber{
		timeout: timeout,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return (&net.Dialer{
						Timeout:   timeout,
						KeepAlive: 0,
					}).DialContext(ctx, network, addr)
				},
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: skipTLSVerify, //nolint:gosec // opt-in for self-signed LAN dashboards
				},
				DisableKeepAlives: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Timeout returns the per-probe timeout.
func (p *HTTPProber) Timeout() time.Duration {
	return p.timeout
}

// Probe sends a GET to rawURL and returns the status code.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, Phases*p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe failed: %w", err)
	}
	defer utils.Close(resp.Body)

	return resp.StatusCode, nil
}
