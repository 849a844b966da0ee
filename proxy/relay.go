// Package proxy relays /api/* calls from the browser to the storefront backend
// so that an HTTPS page can reach an HTTP-only API.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPrefix = "/api/"

	HeaderRequestID = "X-Request-ID"

	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// TokenSource supplies an Authorization bearer token for requests that arrive without one
type TokenSource func(ctx context.Context) (string, error)

type Relay struct {
	target         string
	prefix         string
	client         *http.Client
	tokens         TokenSource
	trusted        config.AllowedOrigins
	corsHeaders    bool
	allowedMethods string
	allowedHeaders string
}

type Option func(*Relay)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) { r.client = c }
}

// WithTokenSource injects the stored token into requests from the page's own origin or a
// CORS_ORIGINS entry. Requests from any other origin are forwarded anonymously.
func WithTokenSource(ts TokenSource) Option {
	return func(r *Relay) { r.tokens = ts }
}

// WithoutCorsHeaders leaves CORS to the surrounding middleware
func WithoutCorsHeaders() Option {
	return func(r *Relay) { r.corsHeaders = false }
}

// WithPrefix sets the local path prefix stripped before forwarding
func WithPrefix(prefix string) Option {
	return func(r *Relay) { r.prefix = prefix }
}

// New relays requests under the prefix to target, e.g. "http://98.92.49.243/api"
func New(target string, cors config.CorsConfig, timeout time.Duration, opts ...Option) *Relay {
	r := &Relay{
		target:         strings.TrimSuffix(target, "/"),
		prefix:         DefaultPrefix,
		client:         &http.Client{Timeout: timeout},
		trusted:        cors.GetAllowedOrigins(),
		corsHeaders:    true,
		allowedMethods: cors.GetAllowedMethods(),
		allowedHeaders: cors.GetAllowedHeaders(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetURL maps a local request onto the backend origin, keeping the query string
func (r *Relay) TargetURL(req *http.Request) string {
	path := strings.TrimPrefix(req.URL.Path, strings.TrimSuffix(r.prefix, "/"))
	path = strings.TrimPrefix(path, "/")

	target := r.target + "/" + path
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	return target
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.corsHeaders {
		r.setCorsHeaders(w)
	}
	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := uuid.NewString()
	target := r.TargetURL(req)
	start := time.Now()

	status, err := r.forward(w, req, target, requestID)
	if err != nil {
		log.Err(err).Str("request_id", requestID).Str("method", req.Method).Str("target", target).Msg("Proxy error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Proxy error",
			"message": err.Error(),
		})
		return
	}
	log.Info().Str("request_id", requestID).Str("method", req.Method).Str("target", target).
		Int("status", status).Dur("elapsed", time.Since(start)).Msg("Proxied")
}

func (r *Relay) setCorsHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", r.allowedMethods)
	h.Set("Access-Control-Allow-Headers", r.allowedHeaders)
}

// forward sends the request upstream and writes the reply. Nothing is written when it returns an error.
func (r *Relay) forward(w http.ResponseWriter, req *http.Request, target, requestID string) (int, error) {
	var body io.Reader
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return 0, fmt.Errorf("reading request body: %w", err)
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
		}
	}

	out, err := http.NewRequestWithContext(req.Context(), req.Method, target, body)
	if err != nil {
		return 0, err
	}
	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeJSON
	}
	out.Header.Set("Content-Type", contentType)
	out.Header.Set(HeaderRequestID, requestID)

	auth := req.Header.Get("Authorization")
	if auth == "" && r.tokens != nil && r.trusted.TrustsRequest(req) {
		if token, err := r.tokens(req.Context()); err == nil && token != "" {
			auth = "Bearer " + token
		}
	}
	if auth != "" {
		out.Header.Set("Authorization", auth)
	}

	resp, err := r.client.Do(out)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading backend response: %w", err)
	}

	if json.Valid(data) {
		w.Header().Set("Content-Type", contentTypeJSON)
	} else {
		ct := resp.Header.Get("Content-Type")
		if ct == "" || strings.HasPrefix(ct, contentTypeJSON) {
			ct = contentTypeText
		}
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(data); err != nil {
		log.Err(err).Str("request_id", requestID).Msg("Failed to write proxied response")
	}
	return resp.StatusCode, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}
