package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"tracking/internal/api/util"
	"tracking/internal/core/repository"
	"tracking/internal/core/service"
	"tracking/internal/protocol/gt06"
	"tracking/internal/protocol/server"

	"github.com/rs/zerolog"
)

const (
	testIMEI   = "123456789012345"
	testSecret = "test-secret"
)

type staticSessions []server.SessionInfo

func (s staticSessions) Sessions() []server.SessionInfo { return s }

func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	svc := service.NewTelemetryService("node-test",
		repository.NewInMemoryPositionRepository(),
		repository.NewInMemoryEventRepository(),
		repository.NewInMemoryDeviceRepository(),
		zerolog.Nop(),
	)

	ctx := context.Background()
	msgs := []gt06.Message{
		&gt06.LoginMessage{Head: gt06.Header{Protocol: gt06.LoginMsg, Serial: 1}, DeviceID: testIMEI},
		&gt06.LocationMessage{
			Head:      gt06.Header{Protocol: gt06.LocationMsg, Serial: 2},
			DeviceID:  testIMEI,
			Time:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			TimeValid: true,
			Fix:       gt06.GeoFix{Latitude: 22.5, Longitude: 113.25, Speed: 30},
		},
	}
	for _, msg := range msgs {
		if err := svc.Accept(ctx, msg); err != nil {
			t.Fatalf("Accept: %v", err)
		}
	}

	return NewRouter(Options{
		GatewayID: "node-test",
		JWTSecret: secret,
		Telemetry: svc,
		Sessions:  staticSessions{{ConnID: "node-test-1", DeviceID: testIMEI, GatewayID: "node-test"}},
		LiveFeed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		Logger: zerolog.Nop(),
	})
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"sessions", http.MethodGet, "/sessions", http.StatusOK},
		{"devices", http.MethodGet, "/api/devices", http.StatusOK},
		{"alarms", http.MethodGet, "/api/alarms?device_id=" + testIMEI, http.StatusOK},
		{"latest", http.MethodGet, "/api/positions/latest?device_id=" + testIMEI, http.StatusOK},
		{"latest with legacy param", http.MethodGet, "/api/positions/latest?deviceId=" + testIMEI, http.StatusOK},
		{"latest without device", http.MethodGet, "/api/positions/latest", http.StatusBadRequest},
		{"latest for unknown device", http.MethodGet, "/api/positions/latest?device_id=359710049095095", http.StatusNotFound},
		{"list", http.MethodGet, "/api/positions/list?device_id=" + testIMEI + "&limit=10", http.StatusOK},
		{"list bad limit", http.MethodGet, "/api/positions/list?device_id=" + testIMEI + "&limit=abc", http.StatusBadRequest},
		{"post not allowed", http.MethodPost, "/api/positions/list?device_id=" + testIMEI, http.StatusMethodNotAllowed},
		{"preflight", http.MethodOptions, "/api/devices", http.StatusNoContent},
		{"live feed", http.MethodGet, "/ws", http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.target, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestLatestPositionBody(t *testing.T) {
	h := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions/latest?device_id="+testIMEI, nil))

	var body struct {
		DeviceID  string  `json:"deviceId"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.DeviceID != testIMEI || body.Latitude != 22.5 || body.Longitude != 113.25 {
		t.Errorf("latest position = %+v", body)
	}
}

func TestSessionsBody(t *testing.T) {
	h := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	var body struct {
		Count    int                  `json:"count"`
		Sessions []server.SessionInfo `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Sessions[0].DeviceID != testIMEI {
		t.Errorf("sessions = %+v", body)
	}
}

func TestMetricsExposition(t *testing.T) {
	h := newTestRouter(t, testSecret)

	// one request through the logging middleware so the HTTP series exist
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, series := range []string{"gt06_http_requests_total", "gt06_tcp_sessions", "gt06_ws_clients"} {
		if !strings.Contains(body, series) {
			t.Errorf("metrics output lacks %s", series)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	h := newTestRouter(t, testSecret)

	valid, err := util.IssueToken([]byte(testSecret), "dashboard", "read", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := util.IssueToken([]byte(testSecret), "dashboard", "read", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	forged, err := util.IssueToken([]byte("other-secret"), "dashboard", "read", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"missing token", "/api/devices", "", http.StatusUnauthorized},
		{"valid token", "/api/devices", "Bearer " + valid, http.StatusOK},
		{"expired token", "/api/devices", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "/api/devices", "Bearer " + forged, http.StatusUnauthorized},
		{"basic scheme", "/api/devices", "Basic " + valid, http.StatusUnauthorized},
		{"token query on live feed", "/ws?token=" + valid, "", http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
