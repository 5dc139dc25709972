package homepage

// ServicesConfig represents the top-level structure of services.yaml
// Homepage uses dynamic keys, so we parse as []map[string][]map[string]ServiceProps
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps contains the service properties arrcenter reads.
// Href is the link shown on the dashboard (usually public); the widget
// URL and siteMonitor usually point at the LAN address.
type ServiceProps struct {
	Href        string                 `yaml:"href"`
	Icon        string                 `yaml:"icon,omitempty"`
	Description string                 `yaml:"description,omitempty"`
	SiteMonitor string                 `yaml:"siteMonitor,omitempty"`
	Widget      map[string]interface{} `yaml:"widget,omitempty"`
}

// widgetString returns a string field of the widget block.
func (p ServiceProps) widgetString(key string) string {
	if p.Widget == nil {
		return ""
	}
	s, _ := p.Widget[key].(string)
	return s
}
