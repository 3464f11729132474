package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"tracking/internal/metrics"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

// forwarder hands a session's messages to the sink, presence registry and
// broadcaster on its own goroutine so the read loop never waits on storage.
// The queue is bounded; when it is full the oldest pending message is dropped.
// Closing drains what is left for at most one delivery timeout; anything still
// queued after that is dropped.
type forwarder struct {
	queue       chan gt06.Message
	sink        Sink
	presence    Presence
	broadcaster Broadcaster
	timeout     time.Duration
	info        func() SessionInfo
	logger      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	dropped   atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
}

func newForwarder(size int, timeout time.Duration, sink Sink, presence Presence, broadcaster Broadcaster, info func() SessionInfo, logger zerolog.Logger) *forwarder {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &forwarder{
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan gt06.Message, size),
		sink:        sink,
		presence:    presence,
		broadcaster: broadcaster,
		timeout:     timeout,
		info:        info,
		logger:      logger,
		done:        make(chan struct{}),
	}
	go f.run()
	return f
}

// Enqueue never blocks. It must only be called from the owning session
// goroutine, and not after close.
func (f *forwarder) Enqueue(msg gt06.Message) {
	for {
		select {
		case f.queue <- msg:
			return
		default:
		}

		select {
		case old := <-f.queue:
			n := f.dropped.Add(1)
			metrics.RecordForwardDropped(1)
			f.logger.Warn().
				Str("kind", string(old.Kind())).
				Uint16("serial", old.Header().Serial).
				Uint64("dropped_total", n).
				Msg("forward queue full, dropped oldest message")
		default:
		}
	}
}

func (f *forwarder) Dropped() uint64 {
	return f.dropped.Load()
}

// close stops accepting messages and waits for the queue to drain. After one
// delivery timeout the in-flight delivery is cancelled and the rest of the
// queue is dropped.
func (f *forwarder) close() {
	f.closeOnce.Do(func() { close(f.queue) })
	defer f.cancel()

	deadline := time.NewTimer(f.timeout)
	defer deadline.Stop()
	select {
	case <-f.done:
		return
	case <-deadline.C:
	}

	f.cancel()
	deadline.Reset(f.timeout)
	select {
	case <-f.done:
	case <-deadline.C:
		f.logger.Error().Dur("timeout", f.timeout).Msg("forwarder did not stop after cancellation")
	}
}

func (f *forwarder) run() {
	defer close(f.done)
	abandoned := 0
	for msg := range f.queue {
		if f.ctx.Err() != nil {
			abandoned++
			continue
		}
		f.deliver(msg)
	}
	if abandoned > 0 {
		f.dropped.Add(uint64(abandoned))
		metrics.RecordForwardDropped(abandoned)
		f.logger.Warn().Int("dropped", abandoned).Msg("forward queue abandoned on close")
	}
}

func (f *forwarder) deliver(msg gt06.Message) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Interface("panic", r).Str("kind", string(msg.Kind())).Msg("forwarder panic recovered")
		}
	}()

	ctx, cancel := context.WithTimeout(f.ctx, f.timeout)
	defer cancel()

	if err := f.sink.Accept(ctx, msg); err != nil {
		f.logger.Error().Err(err).Str("kind", string(msg.Kind())).Msg("sink rejected message")
	}

	info := f.info()
	if info.DeviceID != "" {
		var err error
		if msg.Kind() == gt06.KindLogin {
			err = f.presence.Register(ctx, info)
		} else {
			err = f.presence.Touch(ctx, info, msg)
		}
		if err != nil {
			f.logger.Warn().Err(err).Msg("presence update failed")
		}
	}

	f.broadcaster.Publish(msg)
}
