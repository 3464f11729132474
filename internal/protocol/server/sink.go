package server

import (
	"context"
	"time"
	"tracking/internal/protocol/gt06"
)

// Sink receives every decoded message except Unknown ones. Accept is called
// from one goroutine per session with a per-call timeout on ctx.
type Sink interface {
	Accept(ctx context.Context, msg gt06.Message) error
}

// SessionCloser may be implemented by a Sink that wants to know when a bound
// session ends.
type SessionCloser interface {
	SessionClosed(ctx context.Context, deviceID string)
}

// Broadcaster fans messages out to live subscribers. Publish must not block.
type Broadcaster interface {
	Publish(msg gt06.Message)
}

// Presence tracks which device is connected where.
type Presence interface {
	Register(ctx context.Context, info SessionInfo) error
	Touch(ctx context.Context, info SessionInfo, msg gt06.Message) error
	Unregister(ctx context.Context, info SessionInfo) error
}

// SessionInfo is a point-in-time view of a session.
type SessionInfo struct {
	ConnID      string    `json:"conn_id"`
	DeviceID    string    `json:"device_id"`
	GatewayID   string    `json:"gateway_id"`
	RemoteAddr  string    `json:"client_ip"`
	ConnectedAt time.Time `json:"connected_at"`
	LastActive  time.Time `json:"last_active"`
	LastSerial  uint16    `json:"last_serial"`
	Dropped     uint64    `json:"dropped"`
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(gt06.Message) {}

type nopPresence struct{}

func (nopPresence) Register(context.Context, SessionInfo) error            { return nil }
func (nopPresence) Touch(context.Context, SessionInfo, gt06.Message) error { return nil }
func (nopPresence) Unregister(context.Context, SessionInfo) error          { return nil }
