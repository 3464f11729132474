package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"tracking/internal/metrics"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

const (
	readBufferSize = 4096
	writeTimeout   = 10 * time.Second
)

type Options struct {
	GatewayID    string
	Port         int
	ReadTimeout  time.Duration
	SinkTimeout  time.Duration
	QueueSize    int
	MaxFrameSize int
	AckKeepalive bool
}

type TCPServer struct {
	opts        Options
	sink        Sink
	presence    Presence
	broadcaster Broadcaster
	logger      zerolog.Logger

	listener net.Listener
	sessions sync.Map // conn id -> *Session
	connSeq  atomic.Uint64
	closing  atomic.Bool
	wg       sync.WaitGroup
}

func NewTCPServer(opts Options, sink Sink, logger zerolog.Logger) *TCPServer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 300 * time.Second
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 5 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = gt06.DefaultMaxFrameSize
	}
	return &TCPServer{
		opts:        opts,
		sink:        sink,
		presence:    nopPresence{},
		broadcaster: nopBroadcaster{},
		logger:      logger.With().Str("component", "tcp").Logger(),
	}
}

func (s *TCPServer) WithPresence(p Presence) *TCPServer {
	if p != nil {
		s.presence = p
	}
	return s
}

func (s *TCPServer) WithBroadcaster(b Broadcaster) *TCPServer {
	if b != nil {
		s.broadcaster = b
	}
	return s
}

// Listen binds the TCP port. Port 0 picks a free port, see Addr.
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.listener = listener
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("TCP server listening")
	return nil
}

func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and every live connection and waits for the sessions to drain.
func (s *TCPServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopped:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Stop closes the listener and all live connections.
func (s *TCPServer) Stop() {
	s.closing.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	s.sessions.Range(func(_, value any) bool {
		if session, ok := value.(*Session); ok {
			session.conn.Close()
		}
		return true
	})
}

// Sessions lists the live sessions, oldest connection first.
func (s *TCPServer) Sessions() []SessionInfo {
	var infos []SessionInfo
	s.sessions.Range(func(_, value any) bool {
		if session, ok := value.(*Session); ok {
			infos = append(infos, session.Info())
		}
		return true
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].ConnectedAt.Before(infos[j].ConnectedAt) })
	return infos
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	session := newSession(conn, sessionConfig{
		connID:       fmt.Sprintf("%s-%d", s.opts.GatewayID, s.connSeq.Add(1)),
		gatewayID:    s.opts.GatewayID,
		maxFrame:     s.opts.MaxFrameSize,
		queueSize:    s.opts.QueueSize,
		sinkTimeout:  s.opts.SinkTimeout,
		ackKeepalive: s.opts.AckKeepalive,
	}, s.sink, s.presence, s.broadcaster, s.logger)
	s.sessions.Store(session.ConnID, session)
	metrics.SessionOpened()
	if s.closing.Load() {
		conn.Close()
	}

	defer s.closeSession(session)
	defer func() {
		if r := recover(); r != nil {
			session.logger.Error().Interface("panic", r).Msg("session panic recovered")
		}
	}()

	session.logger.Info().Msg("new connection")

	writeAck := func(ack []byte) error {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := conn.Write(ack)
		return err
	}

	buffer := make([]byte, readBufferSize)
	for {
		conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		n, err := conn.Read(buffer)
		if n > 0 {
			if werr := session.feed(buffer[:n], writeAck); werr != nil {
				session.logger.Warn().Err(werr).Msg("failed to write acknowledgment")
				return
			}
		}
		if err != nil {
			s.logReadError(session, err)
			return
		}
	}
}

func (s *TCPServer) logReadError(session *Session, err error) {
	switch {
	case errors.Is(err, io.EOF):
		session.logger.Info().Msg("connection closed by device")
	case errors.Is(err, os.ErrDeadlineExceeded):
		session.logger.Info().Dur("read_timeout", s.opts.ReadTimeout).Msg("connection idle, closing")
	case errors.Is(err, net.ErrClosed):
		session.logger.Info().Msg("connection closed")
	default:
		session.logger.Warn().Err(err).Msg("read error")
	}
}

func (s *TCPServer) closeSession(session *Session) {
	session.conn.Close()
	s.sessions.Delete(session.ConnID)
	metrics.SessionClosed()
	session.forwarder.close()

	info := session.Info()
	if info.DeviceID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SinkTimeout)
		defer cancel()
		if err := s.presence.Unregister(ctx, info); err != nil {
			session.logger.Warn().Err(err).Msg("failed to unregister session")
		}
		if closer, ok := s.sink.(SessionCloser); ok && !s.deviceConnected(info.DeviceID) {
			closer.SessionClosed(ctx, info.DeviceID)
		}
	}
	session.logger.Info().Uint64("dropped", info.Dropped).Msg("session closed")
}

// deviceConnected reports whether another live session is bound to deviceID.
func (s *TCPServer) deviceConnected(deviceID string) bool {
	found := false
	s.sessions.Range(func(_, value any) bool {
		if session, ok := value.(*Session); ok && session.DeviceID() == deviceID {
			found = true
		}
		return !found
	})
	return found
}
