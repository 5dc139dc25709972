package homepage

import (
	"strings"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// Mapper converts Homepage services into endpoint pairs.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapSnapshot extracts the managed dashboards from a Homepage config.
//
// A service is recognised by its widget type, then by its display name
// ("Radarr", "SABnzbd Downloads"). The widget URL, or siteMonitor when there
// is no widget, becomes the primary candidate and href the secondary one.
// The first entry for a dashboard wins.
func (m *Mapper) MapSnapshot(config ServicesConfig) domain.Snapshot {
	pairs := make(map[domain.ServiceIdentity]domain.EndpointPair)

	for _, groupMap := range config {
		for _, servicesList := range groupMap {
			for _, serviceMap := range servicesList {
				for serviceName, props := range serviceMap {
					id, ok := identify(serviceName, props)
					if !ok {
						continue
					}
					if _, seen := pairs[id]; seen {
						continue
					}

					pair := pairFromProps(props)
					if pair.IsEmpty() {
						continue
					}
					pairs[id] = pair
				}
			}
		}
	}

	return domain.NewSnapshot(pairs)
}

func identify(name string, props ServiceProps) (domain.ServiceIdentity, bool) {
	if t := props.widgetString("type"); t != "" {
		if id, err := domain.ParseServiceIdentity(t); err == nil {
			return id, true
		}
	}
	if id, err := domain.ParseServiceIdentity(name); err == nil {
		return id, true
	}
	if fields := strings.Fields(name); len(fields) > 1 {
		if id, err := domain.ParseServiceIdentity(fields[0]); err == nil {
			return id, true
		}
	}
	return 0, false
}

func pairFromProps(props ServiceProps) domain.EndpointPair {
	primary := strings.TrimSpace(props.widgetString("url"))
	if primary == "" {
		primary = strings.TrimSpace(props.SiteMonitor)
	}
	secondary := strings.TrimSpace(props.Href)

	if primary == "" {
		return domain.EndpointPair{Primary: secondary}
	}
	if sameURL(primary, secondary) {
		secondary = ""
	}
	return domain.EndpointPair{Primary: primary, Secondary: secondary}
}

func sameURL(a, b string) bool {
	return strings.EqualFold(strings.TrimRight(a, "/"), strings.TrimRight(b, "/"))
}
