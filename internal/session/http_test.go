package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSessionConnectLifecycle(t *testing.T) {
	srv := newTestServer(t)
	s := NewHTTP(srv.URL, srv.Client())

	if s.Connected() {
		t.Fatal("session connected before Connect")
	}
	if s.State() != Disconnected {
		t.Fatalf("expected disconnected, got %s", s.State())
	}

	if err := s.Connect(context.Background(), nil); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !s.Connected() || s.State() != Connected {
		t.Fatalf("expected connected, got %s", s.State())
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if s.Connected() {
		t.Fatal("session still connected after Disconnect")
	}
}

func TestHTTPSessionConnectFailure(t *testing.T) {
	// Nothing listens here.
	s := NewHTTP("http://127.0.0.1:1", nil)

	if err := s.Connect(context.Background(), nil); err == nil {
		t.Fatal("expected Connect to fail")
	}
	if s.State() != Disconnected {
		t.Fatalf("expected disconnected after failure, got %s", s.State())
	}
}

func TestHTTPSessionRecv(t *testing.T) {
	srv := newTestServer(t)
	s := NewHTTP(srv.URL, srv.Client())

	body, err := s.Recv(context.Background(), Params{"path": "/health"})
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	var doc map[string]string
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if doc["status"] != "ok" {
		t.Fatalf("unexpected body: %v", doc)
	}
}

func TestHTTPSessionSend(t *testing.T) {
	srv := newTestServer(t)
	s := NewHTTP(srv.URL, srv.Client())

	status, err := s.Send(context.Background(), Params{"path": "/echo", "body": "ping"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %v", status)
	}
}

func TestHTTPSessionSendAndRecv(t *testing.T) {
	srv := newTestServer(t)
	s := NewHTTP(srv.URL, srv.Client())

	resp, err := s.SendAndRecv(context.Background(), Params{
		"method": http.MethodPost,
		"path":   "/echo",
		"body":   "round trip",
	})
	if err != nil {
		t.Fatalf("SendAndRecv failed: %v", err)
	}
	body, ok := resp.([]byte)
	if !ok {
		t.Fatalf("expected []byte response, got %T", resp)
	}
	if string(body) != "round trip" {
		t.Fatalf("unexpected echo: %q", body)
	}
}

func TestHTTPSessionPathNormalization(t *testing.T) {
	srv := newTestServer(t)
	s := NewHTTP(srv.URL+"/", srv.Client())

	// Missing leading slash is tolerated.
	if _, err := s.Recv(context.Background(), Params{"path": "health"}); err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
}

func TestNextIDMonotonic(t *testing.T) {
	a, b := NextID(), NextID()
	if b <= a {
		t.Fatalf("ids not increasing: %d, %d", a, b)
	}
}
