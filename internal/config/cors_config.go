package config

import (
	"net/http"
	"net/url"
	"strings"
)

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// TrustsRequest reports whether r may act with the local user's credentials: it must come
// from the page's own origin or from an origin listed explicitly. "*" never grants trust.
// Requests without Origin (top level navigations, non browser clients) fall back to Sec-Fetch-Site.
func (a AllowedOrigins) TrustsRequest(r *http.Request) bool {
	if origin := r.Header.Get("Origin"); origin != "" {
		if u, err := url.Parse(origin); err == nil && u.Host != "" && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return origin != "*" && a.IsAllowedOrigin(origin)
	}

	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
		return true
	default:
		return false
	}
}

// GetAllowedOrigins reads a comma separated CORS_ORIGINS list. Empty by default: only same
// origin pages may call the UI server.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv("CORS_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return "GET,OPTIONS,PATCH,DELETE,POST,PUT"
}

func (Cors) GetAllowedHeaders() string {
	return "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, " +
		"Content-MD5, Content-Type, Date, X-Api-Version, Authorization"
}
