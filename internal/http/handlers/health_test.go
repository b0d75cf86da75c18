package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abhinav5603/generator-1/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handlers.PingFunc
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
		{
			name: "all up",
			checks: map[string]handlers.PingFunc{
				"db":    func(ctx context.Context) error { return nil },
				"redis": nil,
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"db": "up"},
		},
		{
			name: "db down",
			checks: map[string]handlers.PingFunc{
				"db":    func(ctx context.Context) error { return errors.New("connection refused") },
				"redis": func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"db": "down", "redis": "up"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)

			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}

			var resp struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks: got %v want %v", resp.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Fatalf("check %q: got %q want %q", name, resp.Checks[name], want)
				}
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	h := handlers.NewHealthHandler(nil)

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}
