package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// recordedRequest is one request seen by the stub server.
type recordedRequest struct {
	Method   string
	Endpoint string
	Query    url.Values
	Header   http.Header
	Body     map[string]any
}

// stubReply builds the status and JSON body for a request.
type stubReply func(req recordedRequest) (int, any)

// stubServer is a fake REST API that records requests and answers from
// per-endpoint replies. Unknown endpoints get 404.
type stubServer struct {
	t       *testing.T
	srv     *httptest.Server
	mu      sync.Mutex
	reqs    []recordedRequest
	replies map[string]stubReply
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()
	s := &stubServer{t: t, replies: make(map[string]stubReply)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubServer) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:   r.Method,
		Endpoint: strings.TrimPrefix(r.URL.Path, "/api/v1/"),
		Query:    r.URL.Query(),
		Header:   r.Header.Clone(),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Body); err != nil {
			s.t.Errorf("request body for %s is not a JSON object: %s", rec.Endpoint, data)
		}
	}

	s.mu.Lock()
	s.reqs = append(s.reqs, rec)
	reply, ok := s.replies[rec.Endpoint]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, body := reply(rec)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

// on registers a reply for endpoint.
func (s *stubServer) on(endpoint string, reply stubReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[endpoint] = reply
}

// ok registers a fixed 200 reply with "success": true merged into fields.
func (s *stubServer) ok(endpoint string, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	s.on(endpoint, func(recordedRequest) (int, any) { return http.StatusOK, body })
}

// fail registers a fixed failure reply.
func (s *stubServer) fail(endpoint string, status int, body any) {
	s.on(endpoint, func(recordedRequest) (int, any) { return status, body })
}

func (s *stubServer) requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.reqs...)
}

func (s *stubServer) endpoints() []string {
	var out []string
	for _, r := range s.requests() {
		out = append(out, r.Endpoint)
	}
	return out
}

func (s *stubServer) last() recordedRequest {
	reqs := s.requests()
	if len(reqs) == 0 {
		s.t.Fatal("no requests recorded")
	}
	return reqs[len(reqs)-1]
}

func (s *stubServer) url() string {
	return s.srv.URL + "/api/v1/"
}

// session returns a Session with its own Credentials.
func (s *stubServer) session() *Session {
	return New(s.url(), WithCredentials(NewCredentials()))
}
