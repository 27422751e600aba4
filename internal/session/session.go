// Package session implements the Client Session state machine (spec
// section 4.5): write the HTTP preamble, then stream
// multipart/x-mixed-replace parts from the Shared Frame Slot until a
// write fails, shutdown is requested, or the slot itself shuts down.
package session

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mjpegfan/streameye/internal/broadcast"
)

// Boundary is the fixed multipart boundary token streamed to every
// client (spec section 6).
const Boundary = "jpgboundary"

const preamble = "HTTP/1.0 200 OK\r\n" +
	"Server: streamEye\r\n" +
	"Connection: close\r\n" +
	"Max-Age: 0\r\n" +
	"Expires: 0\r\n" +
	"Cache-Control: no-cache, private\r\n" +
	"Pragma: no-cache\r\n" +
	"Content-Type: multipart/x-mixed-replace; boundary=" + Boundary + "\r\n" +
	"\r\n"

// Logger is the minimal logging surface Session needs.
type Logger interface {
	Infof(template string, args ...interface{})
	Debugf(template string, args ...interface{})
}

// Metrics is the minimal observability surface Session reports through.
// A nil Metrics is valid and simply records nothing.
type Metrics interface {
	FramesSent(camera string)
	FramesDropped(camera string, n int)
	SessionOpened()
	SessionClosed()
	WriteError()
}

// Session is one connected client's write loop. It runs on its own
// goroutine from Start until it reaches Closing.
type Session struct {
	conn       net.Conn
	remoteAddr string
	slot       *broadcast.Slot
	log        Logger
	metrics    Metrics

	running int32 // atomic: 1 while the session should keep streaming
	done    chan struct{}
	stopped sync.Once
	onExit  func()
}

// New builds a Session for an accepted connection. Call Start to run it.
// onExit, if non-nil, is called once as the session reaches Closing —
// spec section 3's "removes itself from ClientRegistry on exit".
func New(conn net.Conn, slot *broadcast.Slot, log Logger, metrics Metrics, onExit func()) *Session {
	return &Session{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		slot:       slot,
		log:        log,
		metrics:    metrics,
		running:    1,
		done:       make(chan struct{}),
		onExit:     onExit,
	}
}

// RemoteAddr returns the peer's address and port (spec section 3).
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Start runs the session's Greeting/Streaming/Closing state machine on a
// new goroutine. It returns immediately.
func (s *Session) Start() {
	go s.run()
}

// Stop requests the session to transition to Closing at its next
// opportunity: closing the socket unblocks any in-flight write. A session
// parked in Slot.Subscribe is not woken by Stop; it wakes on the next
// Publish or on Slot.Shutdown.
func (s *Session) Stop() {
	s.stopped.Do(func() {
		atomic.StoreInt32(&s.running, 0)
		s.conn.Close()
	})
}

// Wait blocks until the session has fully exited (Closing is complete).
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) isRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

func (s *Session) run() {
	defer close(s.done)
	defer s.conn.Close()
	if s.onExit != nil {
		defer s.onExit()
	}
	if s.metrics != nil {
		s.metrics.SessionOpened()
		defer s.metrics.SessionClosed()
	}

	if !s.greet() {
		return
	}
	s.stream()
}

// greet writes the HTTP response preamble (spec section 6). Per spec
// section 6, the client's request is never read — the preamble is
// written unconditionally on accept.
func (s *Session) greet() bool {
	if _, err := s.conn.Write([]byte(preamble)); err != nil {
		s.log.Debugf("session %s: write preamble failed: %v", s.remoteAddr, err)
		return false
	}
	return true
}

// stream loops: subscribe to the next frame, write it as a multipart
// part, repeat. Any write failure or loss of the running flag ends the
// session. All writes happen outside the frame slot's mutex (spec
// section 4.5's write discipline) because Subscribe has already
// returned by the time Write is called.
func (s *Session) stream() {
	var lastSeenEpoch uint64
	for s.isRunning() {
		frame, epoch, ok := s.slot.Subscribe(lastSeenEpoch)
		if !ok {
			return
		}
		if !s.isRunning() {
			return
		}
		if dropped := epoch - lastSeenEpoch - 1; lastSeenEpoch > 0 && dropped > 0 && s.metrics != nil {
			s.metrics.FramesDropped("", int(dropped))
		}
		lastSeenEpoch = epoch

		if err := s.writePart(frame.Data); err != nil {
			s.log.Debugf("session %s: write failed, closing: %v", s.remoteAddr, err)
			if s.metrics != nil {
				s.metrics.WriteError()
			}
			return
		}
		if s.metrics != nil {
			s.metrics.FramesSent("")
		}
	}
}

func (s *Session) writePart(data []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(data))
	if _, err := s.conn.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		return err
	}
	if _, err := s.conn.Write([]byte("\r\n")); err != nil {
		return err
	}
	return nil
}
