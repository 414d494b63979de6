package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the default base URL of the REST API.
const DefaultBaseURL = "http://localhost:3000/api/v1"

// Session holds the API base URL and the transport every resource uses.
type Session struct {
	baseURL    string
	httpClient *http.Client
	creds      *Credentials
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Session) {
		s.httpClient = httpClient
	}
}

// WithCredentials scopes the session to its own Credentials instead of
// DefaultCredentials.
func WithCredentials(creds *Credentials) Option {
	return func(s *Session) {
		s.creds = creds
	}
}

// New creates a new Session against baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Session {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &Session{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		creds:      DefaultCredentials,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the API base URL without a trailing slash.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Credentials returns the default headers shared by this session.
func (s *Session) Credentials() *Credentials {
	return s.creds
}

// response is a completed HTTP exchange.
type response struct {
	StatusCode int
	Body       []byte
}

// envelope holds the status fields every API response carries.
type envelope struct {
	Success *bool  `json:"success"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// ok reports whether the response is HTTP 200 with "success": true.
func (r *response) ok() bool {
	if r.StatusCode != http.StatusOK {
		return false
	}
	var env envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return false
	}
	return env.Success != nil && *env.Success
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// get performs a GET request against endpoint.
func (s *Session) get(ctx context.Context, endpoint string, query url.Values) (*response, error) {
	return s.do(ctx, http.MethodGet, endpoint, query, nil, nil)
}

// post performs a POST request with a JSON body against endpoint.
func (s *Session) post(ctx context.Context, endpoint string, body any) (*response, error) {
	return s.do(ctx, http.MethodPost, endpoint, nil, body, nil)
}

// do sends a request with the shared default headers, then extra on top.
func (s *Session) do(ctx context.Context, method, endpoint string, query url.Values, body any, extra map[string]string) (*response, error) {
	start := time.Now()

	u, err := url.Parse(s.baseURL + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.creds.apply(req.Header)
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	slog.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &response{StatusCode: resp.StatusCode, Body: data}, nil
}

// call performs a request and returns the response only when it carries
// the success flag; every other outcome becomes an *Error of the given kind.
func (s *Session) call(ctx context.Context, kind ErrorKind, errContext string, method, endpoint string, query url.Values, body any) (*response, error) {
	var (
		resp *response
		err  error
	)
	if method == http.MethodGet {
		resp, err = s.get(ctx, endpoint, query)
	} else {
		resp, err = s.post(ctx, endpoint, body)
	}
	if err != nil {
		return nil, transportError(kind, errContext, err)
	}
	if !resp.ok() {
		return nil, buildError(kind, resp.StatusCode, resp.Body, errContext)
	}
	return resp, nil
}

// countAll is the "get all" pagination flag.
var countAll = url.Values{"count": []string{"0"}}
