package router

import (
	"net/http"
	"tracking/internal/api/handler"
	"tracking/internal/api/middleware"
	"tracking/internal/metrics"

	"github.com/rs/zerolog"
)

type Options struct {
	GatewayID string
	JWTSecret string
	Telemetry handler.TelemetryQuery
	Sessions  handler.SessionLister
	// LiveFeed serves /ws; nil leaves the route unregistered.
	LiveFeed http.Handler
	Logger   zerolog.Logger
}

func NewRouter(opts Options) http.Handler {
	// Initialize handlers
	positionHandler := handler.NewPositionHandler(opts.Telemetry)
	deviceHandler := handler.NewDeviceHandler(opts.Telemetry)
	sessionHandler := handler.NewSessionHandler(opts.GatewayID, opts.Sessions)
	authMiddleware := middleware.NewAuthMiddleware(opts.JWTSecret, opts.Logger)
	logging := middleware.LoggingMiddleware(opts.Logger.With().Str("component", "http").Logger())

	// Create router
	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.CORSMiddleware(logging(getOnly(h)))
	}
	protected := func(h http.Handler) http.Handler {
		return middleware.CORSMiddleware(logging(authMiddleware.Authenticate(h)))
	}

	// Health check endpoint
	mux.Handle("/health", public(sessionHandler.Health))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/sessions", protected(getOnly(sessionHandler.List)))

	mux.Handle("/api/devices", protected(getOnly(deviceHandler.GetDevices)))
	mux.Handle("/api/alarms", protected(getOnly(deviceHandler.GetAlarms)))

	mux.Handle("/api/positions/list", protected(getOnly(positionHandler.GetPositions)))
	mux.Handle("/api/positions/latest", protected(getOnly(positionHandler.GetLatestPosition)))

	if opts.LiveFeed != nil {
		mux.Handle("/ws", protected(opts.LiveFeed))
	}

	return mux
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
