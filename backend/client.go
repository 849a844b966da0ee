// Package backend is the HTTP client for the storefront's REST auth API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
	"golang.org/x/oauth2"
)

// API paths relative to the base URL
const (
	PathToken        = "token/"
	PathTokenRefresh = "token/refresh/"
	PathUsers        = "users/"
	PathUserProfile  = "users/profile/"
)

const maxErrorBody = 64 << 10

var _ sessions.Backend = (*Client)(nil)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL ("http://host/api"). A nil httpClient gets a default with timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) Login(ctx context.Context, creds sessions.Credentials) (sessions.TokenPair, error) {
	var pair sessions.TokenPair
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathToken, creds, &pair); err != nil {
		return sessions.TokenPair{}, apperrors.Wrapf(err, "login")
	}
	if pair.AccessToken == "" {
		return sessions.TokenPair{}, &apperrors.BackendError{Kind: apperrors.ErrBackend, Status: http.StatusOK, Detail: "token response without access token"}
	}
	return pair, nil
}

func (c *Client) Register(ctx context.Context, reg sessions.Registration) error {
	return apperrors.Wrapf(c.do(ctx, c.httpClient, http.MethodPost, PathUsers, reg, nil), "register")
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*users.User, error) {
	var u users.User
	if err := c.do(ctx, c.bearerClient(ctx, accessToken), http.MethodGet, PathUserProfile, nil, &u); err != nil {
		return nil, apperrors.Wrapf(err, "current user")
	}
	return &u, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp struct {
		Access string `json:"access"`
	}
	body := map[string]string{"refresh": refreshToken}
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathTokenRefresh, body, &resp); err != nil {
		return "", apperrors.Wrapf(err, "refresh")
	}
	if resp.Access == "" {
		return "", &apperrors.BackendError{Kind: apperrors.ErrBackend, Status: http.StatusOK, Detail: "refresh response without access token"}
	}
	return resp.Access, nil
}

// bearerClient wraps the base client in an oauth2 transport that sets the Authorization header
func (c *Client) bearerClient(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = c.httpClient.Timeout
	return client
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrNetwork, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.BackendError{Kind: apperrors.ErrBackend, Status: resp.StatusCode, Detail: "unreadable response: " + err.Error()}
	}
	return nil
}

// decodeError reads {"detail": "..."} or a field error map {"username": ["..."]}
func decodeError(resp *http.Response) error {
	be := &apperrors.BackendError{
		Kind:   apperrors.KindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return be
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return be
	}
	for field, raw := range payload {
		if field == "detail" {
			_ = json.Unmarshal(raw, &be.Detail)
			continue
		}
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				continue
			}
			msgs = []string{single}
		}
		if be.Fields == nil {
			be.Fields = make(map[string][]string)
		}
		be.Fields[field] = msgs
	}
	return be
}
