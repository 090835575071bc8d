// Package navigation holds the site menu and helpers for safe redirects.
package navigation

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/dashboard").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/login", "/resolve").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", rejects
// anything that is not a local path, optionally validates the prefix, and
// excludes the given subpaths.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}
	if ret == "" {
		return opts.Fallback
	}

	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return opts.Fallback
		}
	}
	return ret
}

var (
	// DashboardBackURL is used after dashboard login and profile saves.
	DashboardBackURL = BackURLOptions{
		AllowedPrefix:    "/dashboard",
		ExcludedSubpaths: []string{"/login", "/logout"},
		Fallback:         "/dashboard",
	}

	// EmergencyBackURL is used after resolving a request. Resolving can
	// happen from the board or the dashboard.
	EmergencyBackURL = BackURLOptions{
		ExcludedSubpaths: []string{"/resolve"},
		Fallback:         "/emergency",
	}
)

// WithQuery returns target with key=value set in its query string. An
// unparsable target is returned unchanged.
func WithQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
