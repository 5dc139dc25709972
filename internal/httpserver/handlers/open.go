package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/arrcenter/internal/display"
	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arrcenter/internal/httpserver/views"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// Open is the display surface: it resolves the service and redirects to the
// winning candidate, or renders an error page with a manual retry link.
// ?retry=1 marks the request as an explicit retry.
func Open(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := serviceParam(w, r)
		if !ok {
			return
		}

		start := d.Display.Open
		if r.URL.Query().Get("retry") == "1" {
			start = d.Display.Retry
		}

		view, err := d.Display.Await(r.Context(), start(id))
		if err != nil {
			// Client gone; the controller still publishes the result.
			return
		}

		switch view.Phase {
		case display.PhaseContent:
			http.Redirect(w, r, strings.TrimSpace(view.URL), http.StatusFound)
		case display.PhaseError:
			renderPage(w, d, http.StatusServiceUnavailable, errorPage(id, view, d))
		default:
			// Superseded by a newer request that is still running.
			renderPage(w, d, http.StatusAccepted, views.ErrorPage{
				Title:          fmt.Sprintf("Opening %s…", id.Title()),
				Service:        id.Slug(),
				Message:        "Another request for this dashboard is in progress.",
				RefreshSeconds: 1,
			})
		}
	}
}

func errorPage(id domain.ServiceIdentity, view display.View, d deps.Deps) views.ErrorPage {
	page := views.ErrorPage{
		Service:  id.Slug(),
		Reason:   string(view.Reason),
		RetryURL: "/open/" + id.Slug() + "?retry=1",
	}

	switch view.Reason {
	case domain.StateNotConfigured:
		page.Title = fmt.Sprintf("%s is not configured", id.Title())
		page.Message = fmt.Sprintf("Set %s or %s in the settings, then retry.",
			id.SettingsKey(domain.SlotPrimary), id.SettingsKey(domain.SlotSecondary))
	default:
		page.Title = fmt.Sprintf("%s is unreachable", id.Title())
		page.Message = fmt.Sprintf("No configured address answered within %v.", d.ProbeTimeout)
	}

	if view.Result != nil {
		for _, a := range view.Result.Attempts {
			status := a.Error
			if a.StatusCode > 0 {
				status = strconv.Itoa(a.StatusCode)
			}
			page.Attempts = append(page.Attempts, views.AttemptRow{
				Slot:   string(a.Slot),
				URL:    a.URL,
				Status: status,
			})
		}
	}
	return page
}

func renderPage(w http.ResponseWriter, d deps.Deps, status int, page views.ErrorPage) {
	if err := d.Pages.Render(w, status, "error.html", page); err != nil {
		d.Logger.Error("failed to render page",
			logger.String("service", page.Service),
			logger.Error(err))
		http.Error(w, page.Title, status)
	}
}
