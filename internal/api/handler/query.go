package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"tracking/internal/core/model"
	"tracking/internal/core/service"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// TelemetryQuery is the read side of the telemetry service.
type TelemetryQuery interface {
	GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error)
	GetDevicePositions(ctx context.Context, deviceID string, limit int) ([]*model.Position, error)
	GetDeviceAlarms(ctx context.Context, deviceID string, limit int) ([]*model.Alarm, error)
	GetDevices(ctx context.Context) ([]*model.Device, error)
}

func deviceIDParam(r *http.Request) string {
	if id := r.URL.Query().Get("device_id"); id != "" {
		return id
	}
	return r.URL.Query().Get("deviceId")
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidDeviceID) {
		http.Error(w, "Device ID required", http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
