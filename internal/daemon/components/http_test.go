package components

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/daemon"
)

type stubComponent struct {
	name    string
	healthy bool
}

func (s *stubComponent) Name() string                    { return s.name }
func (s *stubComponent) Dependencies() []string          { return nil }
func (s *stubComponent) Init(ctx context.Context) error  { return nil }
func (s *stubComponent) Start(ctx context.Context) error { return nil }
func (s *stubComponent) Stop(ctx context.Context) error  { return nil }

func (s *stubComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	h := &daemon.ComponentHealth{Name: s.name, Healthy: s.healthy}
	if !s.healthy {
		h.Error = fmt.Errorf("stub failure")
	}
	return h, nil
}

func TestHandleHealth(t *testing.T) {
	d, err := daemon.NewDaemon(&config.Config{})
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	d.AddComponent(&stubComponent{name: "Ok", healthy: true})
	d.AddComponent(&stubComponent{name: "Broken", healthy: false})

	h := NewHTTPServerComponent(d, &config.ServerConfig{Port: 8080})

	rec := httptest.NewRecorder()
	h.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code: got %d, want 200", rec.Code)
	}

	var payload healthPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Status == "" {
		t.Error("Daemon status missing")
	}
	if payload.Uptime == "" {
		t.Error("Uptime missing")
	}
	if !payload.Components["Ok"].Healthy {
		t.Error("Healthy component reported unhealthy")
	}
	broken := payload.Components["Broken"]
	if broken.Healthy || broken.Error != "stub failure" {
		t.Errorf("Broken component payload: %+v", broken)
	}
}

func TestHandleHealth_MethodNotAllowed(t *testing.T) {
	d, _ := daemon.NewDaemon(&config.Config{})
	h := NewHTTPServerComponent(d, &config.ServerConfig{Port: 8080})

	rec := httptest.NewRecorder()
	h.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code: got %d, want 405", rec.Code)
	}
}
