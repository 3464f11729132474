package handler

import (
	"net/http"
)

type DeviceHandler struct {
	telemetry TelemetryQuery
}

func NewDeviceHandler(telemetry TelemetryQuery) *DeviceHandler {
	return &DeviceHandler{
		telemetry: telemetry,
	}
}

// GetDevices lists every device that has logged in at least once.
func (h *DeviceHandler) GetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.telemetry.GetDevices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) GetAlarms(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	alarms, err := h.telemetry.GetDeviceAlarms(r.Context(), deviceIDParam(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alarms)
}
