package session

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mjpegfan/streameye/internal/broadcast"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Debugf(string, ...interface{}) {}

func newSessionPipe(t *testing.T, slot *broadcast.Slot) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	s := New(server, slot, testLogger{}, nil, nil)
	return s, client
}

func TestSessionWritesPreambleThenFrames(t *testing.T) {
	slot := broadcast.NewSlot()
	s, client := newSessionPipe(t, slot)
	s.Start()

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.0 200 OK") {
		t.Fatalf("status line = %q", line)
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading preamble: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}

	slot.Publish(broadcast.Frame{Data: []byte("frame-one")})

	boundary, err := reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(boundary, "--"+Boundary) {
		t.Fatalf("boundary line = %q, err = %v", boundary, err)
	}
	var contentLength string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading part header: %v", err)
		}
		if strings.HasPrefix(line, "Content-Length:") {
			contentLength = strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
		}
		if line == "\r\n" {
			break
		}
	}
	if contentLength != "9" {
		t.Fatalf("Content-Length = %q, want 9", contentLength)
	}
	body := make([]byte, 9)
	if _, err := io.ReadFull(reader, body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "frame-one" {
		t.Fatalf("body = %q, want %q", body, "frame-one")
	}

	s.Stop()
	client.Close()
	waitDone(t, s)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session never finished")
	}
}

func TestSessionStopEndsStream(t *testing.T) {
	slot := broadcast.NewSlot()
	s, client := newSessionPipe(t, slot)
	s.Start()
	defer client.Close()

	// Drain the preamble so the goroutine reaches Streaming.
	reader := bufio.NewReader(client)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading preamble: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}

	s.Stop()
	waitDone(t, s)
}
