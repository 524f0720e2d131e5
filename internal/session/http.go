package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPSession is a sample Session implementation over HTTP. It exists so the
// harness can run against an ordinary web service out of the box; protocol
// parameters are passed through Params:
//
//	"path"   request path relative to the base URL (default "/")
//	"body"   request body for Send/SendAndRecv (string)
//	"method" override for Send/SendAndRecv (default POST)
type HTTPSession struct {
	id      int64
	baseURL string
	client  *http.Client
	state   State
}

// NewHTTP creates an HTTP-backed session against baseURL. A nil client falls
// back to http.DefaultClient.
func NewHTTP(baseURL string, client *http.Client) *HTTPSession {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSession{
		id:      NextID(),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *HTTPSession) ID() int64       { return s.id }
func (s *HTTPSession) State() State    { return s.state }
func (s *HTTPSession) Connected() bool { return s.state == Connected }

// Connect probes the base URL. Any HTTP response counts as connected; only a
// transport-level failure leaves the session disconnected.
func (s *HTTPSession) Connect(ctx context.Context, params Params) error {
	s.state = Connecting

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url(params), nil)
	if err != nil {
		s.state = Disconnected
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.state = Disconnected
		return fmt.Errorf("connect %s: %w", s.baseURL, err)
	}
	resp.Body.Close()

	s.state = Connected
	return nil
}

func (s *HTTPSession) Disconnect() error {
	s.client.CloseIdleConnections()
	s.state = Disconnected
	return nil
}

// Send issues a request and discards the body. Returns the HTTP status code.
func (s *HTTPSession) Send(ctx context.Context, params Params) (any, error) {
	resp, err := s.do(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Recv issues a GET and returns the response body.
func (s *HTTPSession) Recv(ctx context.Context, params Params) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(params), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// SendAndRecv issues a request and returns the response body, treating the
// exchange as one paired request/response unit.
func (s *HTTPSession) SendAndRecv(ctx context.Context, params Params) (any, error) {
	resp, err := s.do(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *HTTPSession) do(ctx context.Context, params Params) (*http.Response, error) {
	method := http.MethodPost
	if m, ok := params["method"].(string); ok && m != "" {
		method = m
	}

	var body io.Reader
	if b, ok := params["body"].(string); ok && b != "" {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url(params), body)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

func (s *HTTPSession) url(params Params) string {
	path := "/"
	if p, ok := params["path"].(string); ok && p != "" {
		path = p
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.baseURL + path
}

func (s *HTTPSession) String() string {
	return fmt.Sprintf("HTTPSession[%d, %s]", s.id, s.state)
}
