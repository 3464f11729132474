package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tracking/internal/core/model"
	"tracking/internal/core/repository"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

var ErrInvalidDeviceID = errors.New("invalid device ID")

// TelemetryService persists decoded messages and answers queries over them.
// It is safe for concurrent use by many sessions.
type TelemetryService struct {
	gatewayID string
	positions repository.PositionRepository
	events    repository.EventRepository
	devices   repository.DeviceRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTelemetryService(
	gatewayID string,
	positions repository.PositionRepository,
	events repository.EventRepository,
	devices repository.DeviceRepository,
	logger zerolog.Logger,
) *TelemetryService {
	return &TelemetryService{
		gatewayID: gatewayID,
		positions: positions,
		events:    events,
		devices:   devices,
		logger:    logger.With().Str("component", "telemetry").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Accept stores one message. Unknown messages are ignored.
func (s *TelemetryService) Accept(ctx context.Context, msg gt06.Message) error {
	receivedAt := s.now()

	switch m := msg.(type) {
	case *gt06.LoginMessage:
		return s.recordLogin(ctx, m.DeviceID, receivedAt)

	case *gt06.LocationMessage:
		position := positionRecord(m, receivedAt)
		if err := s.positions.Create(ctx, position); err != nil {
			return fmt.Errorf("store location: %w", err)
		}
		return s.touchDevice(ctx, m.DeviceID, position.ID, receivedAt)

	case *gt06.StatusMessage:
		if err := s.events.CreateStatusReport(ctx, statusRecord(m, receivedAt)); err != nil {
			return fmt.Errorf("store status: %w", err)
		}
		return s.touchDevice(ctx, m.DeviceID, "", receivedAt)

	case *gt06.HeartbeatMessage:
		if err := s.events.CreateStatusReport(ctx, heartbeatRecord(m, receivedAt)); err != nil {
			return fmt.Errorf("store heartbeat: %w", err)
		}
		return s.touchDevice(ctx, m.DeviceID, "", receivedAt)

	case *gt06.AlarmMessage:
		if err := s.events.CreateAlarm(ctx, alarmRecord(m, receivedAt)); err != nil {
			return fmt.Errorf("store alarm: %w", err)
		}
		s.logger.Warn().
			Str("device_id", m.DeviceID).
			Str("alarm", gt06.AlarmStatus(m.AlarmStatus)).
			Msg("alarm received")
		return s.touchDevice(ctx, m.DeviceID, "", receivedAt)

	case *gt06.CommandResponseMessage:
		if err := s.events.CreateCommandResponse(ctx, commandResponseRecord(m, receivedAt)); err != nil {
			return fmt.Errorf("store command response: %w", err)
		}
		return nil

	default:
		return nil
	}
}

// SessionClosed marks the device offline once its connection is gone.
func (s *TelemetryService) SessionClosed(ctx context.Context, deviceID string) {
	if deviceID == "" {
		return
	}
	device, err := s.devices.FindByIMEI(ctx, deviceID)
	if err != nil || device == nil {
		return
	}
	device.Status = model.DeviceStatusOffline
	device.Touch(s.now())
	if err := s.devices.Save(ctx, device); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("failed to mark device offline")
	}
}

func (s *TelemetryService) recordLogin(ctx context.Context, imei string, at time.Time) error {
	device, err := s.devices.FindByIMEI(ctx, imei)
	if err != nil {
		return fmt.Errorf("find device %s: %w", imei, err)
	}
	if device == nil {
		device = model.NewDevice(imei, at)
		s.logger.Info().Str("device_id", imei).Msg("new device registered")
	}
	device.MarkLogin(s.gatewayID, at)
	if err := s.devices.Save(ctx, device); err != nil {
		return fmt.Errorf("save device %s: %w", imei, err)
	}
	return nil
}

// touchDevice refreshes the registry entry of a known device. Messages from
// sessions that never logged in carry no device ID and are not tracked.
func (s *TelemetryService) touchDevice(ctx context.Context, imei, positionID string, at time.Time) error {
	if imei == "" {
		return nil
	}
	device, err := s.devices.FindByIMEI(ctx, imei)
	if err != nil {
		return fmt.Errorf("find device %s: %w", imei, err)
	}
	if device == nil {
		return nil
	}
	device.MarkSeen(at)
	if positionID != "" {
		device.LastPositionID = positionID
	}
	if err := s.devices.Save(ctx, device); err != nil {
		return fmt.Errorf("save device %s: %w", imei, err)
	}
	return nil
}

func (s *TelemetryService) GetLatestPosition(ctx context.Context, deviceID string) (*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.positions.FindLatestByDeviceID(ctx, deviceID)
}

func (s *TelemetryService) GetDevicePositions(ctx context.Context, deviceID string, limit int) ([]*model.Position, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.positions.FindByDeviceID(ctx, deviceID, limit)
}

func (s *TelemetryService) GetDeviceAlarms(ctx context.Context, deviceID string, limit int) ([]*model.Alarm, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.events.FindAlarmsByDeviceID(ctx, deviceID, limit)
}

func (s *TelemetryService) GetDevices(ctx context.Context) ([]*model.Device, error) {
	return s.devices.FindAll(ctx)
}
