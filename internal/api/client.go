package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/franz/score-librarian/internal/util"
	"github.com/google/uuid"
)

const (
	// DefaultEventsPrefix is where the backend mounts the events app
	DefaultEventsPrefix = "/events"

	// UserAgent identifies this tool to the backend
	UserAgent = "score-librarian/1.0 (slib)"

	maxErrorBody = 512
)

// ErrSessionExpired is returned when a 401 could not be recovered by a
// refresh. The session has been cleared by the time it is returned.
var ErrSessionExpired = util.ErrSessionExpired

// Config holds everything the client needs to reach the backend
type Config struct {
	BaseURL      string        // e.g. http://localhost:8000/api
	EventsPrefix string        // events app mount, default /events
	Timeout      time.Duration // per request, default 30s
	UserAgent    string
	HTTPClient   *http.Client // optional, overrides Timeout
}

// AuthEvent names a token lifecycle transition observed by the client
type AuthEvent string

const (
	AuthLogin   AuthEvent = "login"
	AuthRefresh AuthEvent = "refresh"
	AuthExpired AuthEvent = "expired"
	AuthLogout  AuthEvent = "logout"
)

// Client talks to the sheet-music backend
type Client struct {
	base       *url.URL
	events     string
	userAgent  string
	httpClient *http.Client
	session    *Session
	onAuth     func(AuthEvent, string, error)

	refreshMu sync.Mutex // serializes token refresh
}

// New creates a client for cfg using session for credentials
func New(cfg Config, session *Session) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is empty: %w", util.ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, util.ErrInvalidConfig)
	}

	events := cfg.EventsPrefix
	if events == "" {
		events = DefaultEventsPrefix
	}
	events = "/" + strings.Trim(events, "/")
	if events == "/" {
		events = ""
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgent
	}

	if session == nil {
		session = NewSession(nil)
	}

	return &Client{
		base:       base,
		events:     events,
		userAgent:  ua,
		httpClient: httpClient,
		session:    session,
	}, nil
}

// Session returns the client's session
func (c *Client) Session() *Session {
	return c.session
}

// OnAuth registers a callback for login, refresh, expiry and logout
func (c *Client) OnAuth(fn func(event AuthEvent, username string, err error)) {
	c.onAuth = fn
}

func (c *Client) notify(event AuthEvent, err error) {
	if c.onAuth != nil {
		c.onAuth(event, c.session.Username(), err)
	}
}

// HTTPError is a non-2xx response
type HTTPError struct {
	Status int
	Method string
	Path   string
	Detail string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Temporary reports whether the server failed rather than the request
func (e *HTTPError) Temporary() bool {
	return e.Status >= 500
}

// Unwrap maps well-known statuses onto sentinel errors
func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return util.ErrNotFound
	case http.StatusForbidden:
		return util.ErrPermission
	case http.StatusBadRequest:
		return util.ErrValidation
	}
	return nil
}

// IsStatus reports whether err is an HTTPError with the given status
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}

// request describes one call; body is rebuilt for every attempt so the
// request can be replayed after a token refresh
type request struct {
	method string
	path   string
	query  url.Values
	body   func() (io.Reader, string, error)
	anon   bool
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (c *Client) eventsPath(p string) string {
	return c.events + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) send(ctx context.Context, r *request, access string) (*http.Response, error) {
	var body io.Reader
	var contentType string
	if r.body != nil {
		var err error
		body, contentType, err = r.body()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r.path, r.query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	util.DebugLog("API: %s %s (request %s)", r.method, r.path, reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	return resp, nil
}

// do executes r and decodes a 2xx body into out (if non-nil). A 401 on an
// authenticated request triggers exactly one refresh and one replay. Requests
// that fail concurrently with the same token share a single refresh.
func (c *Client) do(ctx context.Context, r *request, out any) error {
	var access string
	if !r.anon {
		tokens, err := c.session.Tokens()
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if tokens.Empty() {
			return util.ErrNotAuthenticated
		}
		access = tokens.Access
	}

	resp, err := c.send(ctx, r, access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.anon {
		drain(resp)

		access, err = c.renew(ctx, access)
		if err != nil {
			return c.expire(err)
		}

		resp, err = c.send(ctx, r, access)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return c.expire(fmt.Errorf("%s %s: still unauthorized after refresh", r.method, r.path))
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(r, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", r.method, r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", r.method, r.path, err)
	}
	return nil
}

// renew returns an access token to replay with after stale was rejected. If
// another request already replaced stale, its token is reused.
func (c *Client) renew(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tokens, err := c.session.Tokens()
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if tokens.Access != "" && tokens.Access != stale {
		util.DebugLog("API: access token already refreshed")
		return tokens.Access, nil
	}
	return c.refresh(ctx)
}

func (c *Client) expire(cause error) error {
	util.DebugLog("API: session expired: %v", cause)
	c.notify(AuthExpired, cause)
	if err := c.session.Clear(); err != nil {
		util.WarnLog("Failed to clear session: %v", err)
	}
	return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

func newHTTPError(r *request, resp *http.Response) *HTTPError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &HTTPError{
		Status: resp.StatusCode,
		Method: r.method,
		Path:   r.path,
		Detail: errorDetail(data),
	}
}

// errorDetail extracts a human message from a REST framework error body:
// {"detail": "..."}, {"field": ["msg", ...]}, ["msg"], or raw text.
func errorDetail(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		if raw, ok := obj["detail"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				return s
			}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			msgs := messages(obj[k])
			if len(msgs) == 0 {
				continue
			}
			if k == "non_field_errors" {
				parts = append(parts, strings.Join(msgs, "; "))
			} else {
				parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(msgs, "; ")))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	if msgs := messages(data); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}

	s := string(data)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

func messages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var one string
	if json.Unmarshal(raw, &one) == nil && one != "" {
		return []string{one}
	}
	return nil
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]} body
func decodeList[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []T{}, nil
	}

	items := []T{}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if page.Results != nil {
		items = page.Results
	}
	return items, nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, &request{method: http.MethodGet, path: path, query: query}, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}
