package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

func startTestServer(t *testing.T, sink Sink, opts Options) (*TCPServer, context.CancelFunc, <-chan error) {
	t.Helper()
	opts.GatewayID = "node-test"
	srv := NewTCPServer(opts, sink, zerolog.Nop())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	return srv, cancel, done
}

func dial(t *testing.T, srv *TCPServer) net.Conn {
	t.Helper()
	port := srv.Addr().(*net.TCPAddr).Port
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readAck(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	ack := make([]byte, 10)
	if _, err := io.ReadFull(conn, ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	return ack
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTCPServerSession(t *testing.T) {
	sink := &recordingSink{}
	srv, cancel, done := startTestServer(t, sink, Options{AckKeepalive: true})
	defer cancel()

	conn := dial(t, srv)

	if _, err := conn.Write(mustHex(t, loginHex)); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x78, 0x78, 0x05, 0x01, 0x00, 0x01, 0xD9, 0xDC, 0x0D, 0x0A}
	if ack := readAck(t, conn); !bytes.Equal(ack, want) {
		t.Fatalf("login ack = % x, want % x", ack, want)
	}

	// heartbeat split across two writes
	hb := mustHex(t, heartbeatHex)
	conn.Write(hb[:4])
	time.Sleep(20 * time.Millisecond)
	conn.Write(hb[4:])
	if ack := readAck(t, conn); !bytes.Equal(ack, gt06.BuildAck(gt06.HeartbeatMsg, 5)) {
		t.Fatalf("heartbeat ack = % x", ack)
	}

	// garbage, then a location
	conn.Write(append([]byte{0x00, 0x13, 0x37}, mustHex(t, locationHex)...))

	waitFor(t, func() bool { return len(sink.snapshot()) == 3 })

	sessions := srv.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 live session, got %d", len(sessions))
	}
	if sessions[0].DeviceID != testIMEI || sessions[0].ConnID != "node-test-1" || sessions[0].LastSerial != 3 {
		t.Errorf("unexpected session info %+v", sessions[0])
	}

	conn.Close()
	waitFor(t, func() bool { return len(srv.Sessions()) == 0 })

	got := sink.snapshot()
	kinds := []gt06.Kind{gt06.KindLogin, gt06.KindHeartbeat, gt06.KindLocation}
	for i, kind := range kinds {
		if got[i].Kind() != kind {
			t.Errorf("message %d kind = %s, want %s", i, got[i].Kind(), kind)
		}
		if id := gt06.DeviceID(got[i]); id != testIMEI {
			t.Errorf("message %d device = %q", i, id)
		}
	}

	var closed []string
	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		closed = append([]string(nil), sink.closed...)
		return len(closed) > 0
	})
	if len(closed) != 1 || closed[0] != testIMEI {
		t.Errorf("SessionClosed calls = %v", closed)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestTCPServerReconnectKeepsDeviceOnline(t *testing.T) {
	sink := &recordingSink{}
	srv, cancel, _ := startTestServer(t, sink, Options{})
	defer cancel()

	closedCalls := func() []string {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return append([]string(nil), sink.closed...)
	}

	stale := dial(t, srv)
	stale.Write(mustHex(t, loginHex))
	readAck(t, stale)

	live := dial(t, srv)
	defer live.Close()
	live.Write(mustHex(t, loginHex))
	readAck(t, live)

	stale.Close()
	waitFor(t, func() bool { return len(srv.Sessions()) == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := closedCalls(); len(got) != 0 {
		t.Fatalf("stale session reported the device offline: %v", got)
	}

	live.Close()
	waitFor(t, func() bool { return len(closedCalls()) > 0 })
	if got := closedCalls(); len(got) != 1 || got[0] != testIMEI {
		t.Errorf("SessionClosed calls = %v", got)
	}
}

func TestTCPServerShutdownClosesConnections(t *testing.T) {
	srv, cancel, done := startTestServer(t, &recordingSink{}, Options{})

	conn := dial(t, srv)
	defer conn.Close()
	conn.Write(mustHex(t, loginHex))
	readAck(t, conn)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("expected the connection to be closed by the server")
	}
}

func TestTCPServerReadTimeout(t *testing.T) {
	srv, cancel, _ := startTestServer(t, &recordingSink{}, Options{ReadTimeout: 300 * time.Millisecond})
	defer cancel()

	conn := dial(t, srv)
	defer conn.Close()

	waitFor(t, func() bool { return len(srv.Sessions()) == 1 })
	waitFor(t, func() bool { return len(srv.Sessions()) == 0 })
}
