package broadcast

import (
	"fmt"
	"time"
	"tracking/internal/protocol/gt06"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const DefaultSubjectPrefix = "gt06.uplink"

// ConnectNATS dials the bus with reconnects enabled and disconnects logged.
func ConnectNATS(url, name string, logger zerolog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Subjects returns the per-kind subject and the catch-all subject for kind.
func Subjects(prefix string, kind gt06.Kind) (string, string) {
	return fmt.Sprintf("%s.%s", prefix, kind), prefix + ".all"
}

// NATSPublisher publishes every message as an Event on the bus.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With().Str("component", "nats").Logger(),
	}
}

func (p *NATSPublisher) Publish(msg gt06.Message) {
	data, err := NewEvent(msg, time.Now()).Marshal()
	if err != nil {
		p.logger.Error().Err(err).Str("type", string(msg.Kind())).Msg("failed to marshal event")
		return
	}

	subject, all := Subjects(p.prefix, msg.Kind())
	for _, s := range []string{subject, all} {
		if err := p.conn.Publish(s, data); err != nil {
			p.logger.Warn().Err(err).Str("subject", s).Msg("publish failed")
			return
		}
	}
	p.logger.Debug().
		Str("subject", subject).
		Str("device_id", gt06.DeviceID(msg)).
		Msg("event published")
}

// Close flushes pending publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
