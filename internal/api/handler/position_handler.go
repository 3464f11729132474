package handler

import (
	"net/http"
)

type PositionHandler struct {
	telemetry TelemetryQuery
}

func NewPositionHandler(telemetry TelemetryQuery) *PositionHandler {
	return &PositionHandler{
		telemetry: telemetry,
	}
}

func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	positions, err := h.telemetry.GetDevicePositions(r.Context(), deviceIDParam(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, positions)
}

func (h *PositionHandler) GetLatestPosition(w http.ResponseWriter, r *http.Request) {
	position, err := h.telemetry.GetLatestPosition(r.Context(), deviceIDParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if position == nil {
		http.Error(w, "No position found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, position)
}
