package guard

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

const (
	DefaultLoginPath = "/login"
	DefaultSafePath  = "/products"

	pendingRetrySeconds = 1
)

type contextKey string

const contextKeyUser contextKey = "guard_user"

// UserFromContext returns the user a Protect middleware granted access to
func UserFromContext(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(contextKeyUser).(*users.User)
	return u, ok && u != nil
}

type Options struct {
	LoginPath string // where anonymous users are sent
	SafePath  string // offered on the access denied page
}

func (o Options) withDefaults() Options {
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	if o.SafePath == "" {
		o.SafePath = DefaultSafePath
	}
	return o
}

type pendingPage struct {
	RetrySeconds int
}

type forbiddenPage struct {
	Required string
	Role     string
	Username string
	SafePath string
}

// Protect returns middleware that renders the handler only when the session satisfies required.
// Pending answers 503 with a waiting page, anonymous sessions are redirected to the
// login page and authenticated users lacking the capability get a 403 page.
func Protect(src SessionSource, required users.Capability, opts Options) func(http.HandlerFunc) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s := src.Snapshot()

			switch Evaluate(required, s) {
			case Pending:
				w.Header().Set("Retry-After", strconv.Itoa(pendingRetrySeconds))
				render(w, http.StatusServiceUnavailable, "pending.html", pendingPage{RetrySeconds: pendingRetrySeconds})

			case DeniedUnauthenticated:
				http.Redirect(w, r, opts.LoginPath, http.StatusSeeOther)

			case DeniedForbidden:
				log.Info().Str("user", s.User.Username).Str("role", string(s.User.Role)).
					Str("path", r.URL.Path).Str("required", required.Name).Msg("Access denied")
				render(w, http.StatusForbidden, "forbidden.html", forbiddenPage{
					Required: required.Name,
					Role:     string(s.User.Role),
					Username: s.User.Username,
					SafePath: opts.SafePath,
				})

			case Granted:
				ctx := context.WithValue(r.Context(), contextKeyUser, s.User)
				next(w, r.WithContext(ctx))
			}
		}
	}
}

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render guard page")
	}
}
