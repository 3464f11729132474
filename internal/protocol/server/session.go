package server

import (
	"encoding/hex"
	"errors"
	"net"
	"sync"
	"time"
	"tracking/internal/metrics"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

// Session is the state of one device connection. It starts unbound and is
// bound to a device by the first login; the binding never changes after that.
type Session struct {
	ConnID      string
	GatewayID   string
	RemoteAddr  string
	ConnectedAt time.Time

	conn         net.Conn
	reader       *gt06.FrameReader
	forwarder    *forwarder
	ackKeepalive bool
	logger       zerolog.Logger

	mu         sync.RWMutex
	deviceID   string
	lastSerial uint16
	lastActive time.Time
}

type sessionConfig struct {
	connID       string
	gatewayID    string
	maxFrame     int
	queueSize    int
	sinkTimeout  time.Duration
	ackKeepalive bool
}

func newSession(conn net.Conn, cfg sessionConfig, sink Sink, presence Presence, broadcaster Broadcaster, logger zerolog.Logger) *Session {
	now := time.Now()
	s := &Session{
		ConnID:       cfg.connID,
		GatewayID:    cfg.gatewayID,
		ConnectedAt:  now,
		conn:         conn,
		reader:       gt06.NewFrameReader(cfg.maxFrame),
		ackKeepalive: cfg.ackKeepalive,
		lastActive:   now,
	}
	if conn != nil && conn.RemoteAddr() != nil {
		s.RemoteAddr = conn.RemoteAddr().String()
	}
	s.logger = logger.With().Str("conn_id", s.ConnID).Str("client_ip", s.RemoteAddr).Logger()
	s.forwarder = newForwarder(cfg.queueSize, cfg.sinkTimeout, sink, presence, broadcaster, s.Info, s.logger)
	return s
}

// DeviceID returns the bound device identifier, or "" while unbound.
func (s *Session) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID
}

func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionInfo{
		ConnID:      s.ConnID,
		DeviceID:    s.deviceID,
		GatewayID:   s.GatewayID,
		RemoteAddr:  s.RemoteAddr,
		ConnectedAt: s.ConnectedAt,
		LastActive:  s.lastActive,
		LastSerial:  s.lastSerial,
		Dropped:     s.forwarder.Dropped(),
	}
}

// feed runs newly read bytes through the frame reader. Each frame's
// acknowledgment is passed to write before the next frame is handled.
func (s *Session) feed(p []byte, write func([]byte) error) error {
	frames, discarded := s.reader.Feed(p)
	if discarded > 0 {
		metrics.RecordDiscarded(discarded)
		s.logger.Warn().Int("bytes", discarded).Msg("discarded bytes while resynchronising")
	}

	for _, f := range frames {
		if ack := s.handleFrame(f); ack != nil {
			if err := write(ack); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleFrame decodes one frame, updates the session state and queues the
// message for forwarding. It returns the acknowledgment to send, if any.
func (s *Session) handleFrame(f gt06.Frame) []byte {
	if !f.ChecksumOK {
		metrics.RecordChecksumMismatch()
		s.logger.Warn().
			Str("type", gt06.MessageTypeName(f.Protocol)).
			Uint16("serial", f.Serial).
			Str("raw", hex.EncodeToString(f.Raw)).
			Msg("checksum mismatch")
	}

	msg, err := gt06.Decode(f)
	if err != nil {
		var partial *gt06.PartialMessageError
		if errors.As(err, &partial) {
			metrics.RecordSkipped("partial")
			s.logger.Warn().Err(err).Str("raw", hex.EncodeToString(f.Raw)).Msg("partial message skipped")
		} else {
			metrics.RecordSkipped("invalid")
			s.logger.Error().Err(err).Msg("decode failed")
		}
		return nil
	}
	metrics.RecordFrameDecoded(string(msg.Kind()))

	s.mu.Lock()
	s.lastSerial = f.Serial
	s.lastActive = time.Now()
	s.mu.Unlock()

	var ack []byte
	switch m := msg.(type) {
	case *gt06.UnknownMessage:
		metrics.RecordSkipped("unknown")
		s.logger.Info().
			Uint8("protocol", f.Protocol).
			Str("payload", hex.EncodeToString(m.Payload)).
			Msg("unsupported message type")
		return nil

	case *gt06.LoginMessage:
		ack = gt06.BuildAck(f.Protocol, f.Serial)
		if !s.bind(m.DeviceID) {
			return ack
		}

	case *gt06.StatusMessage, *gt06.HeartbeatMessage, *gt06.AlarmMessage:
		if s.ackKeepalive {
			ack = gt06.BuildAck(f.Protocol, f.Serial)
		}
	}

	gt06.WithDeviceID(msg, s.DeviceID())
	s.logger.Debug().
		Str("type", string(msg.Kind())).
		Uint16("serial", f.Serial).
		Str("device_id", gt06.DeviceID(msg)).
		Msg("message received")
	s.forwarder.Enqueue(msg)
	return ack
}

// bind attaches the session to deviceID. It reports false when the session
// is already bound to a different device; that login is ignored.
func (s *Session) bind(deviceID string) bool {
	s.mu.Lock()
	current := s.deviceID
	if current == "" {
		s.deviceID = deviceID
	}
	s.mu.Unlock()

	switch current {
	case "":
		s.logger = s.logger.With().Str("device_id", deviceID).Logger()
		s.logger.Info().Msg("device logged in")
		return true
	case deviceID:
		return true
	default:
		s.logger.Warn().Str("login_device_id", deviceID).Msg("login for a different device ignored")
		return false
	}
}
