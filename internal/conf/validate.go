package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(s *Settings) error {
	ve := ValidationError{}
	add := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}

	u, err := url.Parse(s.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("server.url must be an http(s) URL, got %q", s.Server.URL)
	}
	if s.Server.Timeout < 0 {
		add("server.timeout must not be negative")
	}
	if s.Poll.Interval <= 0 {
		add("poll.interval must be positive")
	}
	if s.Check.ReloadDelay < 0 {
		add("check.reloaddelay must not be negative")
	}
	if s.Notify.Duration < 0 {
		add("notify.duration must not be negative")
	}
	if s.Notify.MaxVisible < 0 {
		add("notify.maxvisible must not be negative")
	}
	if s.Notify.CollapseWindow < 0 {
		add("notify.collapsewindow must not be negative")
	}
	if s.Netwatch.Enabled && s.Netwatch.Interval <= 0 {
		add("netwatch.interval must be positive")
	}
	if _, err := language.Parse(s.UI.Locale); err != nil {
		add("ui.locale %q is not a valid language tag", s.UI.Locale)
	}
	if s.UI.NarrowWidth < 0 {
		add("ui.narrowwidth must not be negative")
	}
	if s.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(s.Metrics.Listen); err != nil {
			add("metrics.listen %q is not host:port", s.Metrics.Listen)
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
