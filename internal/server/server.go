// Package server wires together the Shared Frame Slot, Client Registry,
// Acceptor, and Lifecycle into the Server aggregate spec section 9 calls
// for: an explicit owner of the mutable state the original C source kept
// as globals, passed by shared reference to every worker goroutine.
package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mjpegfan/streameye/internal/broadcast"
	"github.com/mjpegfan/streameye/internal/registry"
	"github.com/mjpegfan/streameye/internal/session"
)

// Logger is the minimal logging surface Server and its collaborators need.
type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Debugf(template string, args ...interface{})
}

// Server owns the frame slot, the client registry, and the listening
// socket for one streameye process.
type Server struct {
	Slot     *broadcast.Slot
	Registry *registry.Registry

	listener    net.Listener
	log         Logger
	metrics     session.Metrics
	readTimeout time.Duration
}

// New builds a Server bound to addr. The listener is created here so
// startup failures (spec section 7's "Fatal init") surface before any
// goroutine starts.
func New(addr string, readTimeout time.Duration, log Logger, metrics session.Metrics) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", addr, err)
	}
	return &Server{
		Slot:        broadcast.NewSlot(),
		Registry:    registry.New(),
		listener:    listener,
		log:         log,
		metrics:     metrics,
		readTimeout: readTimeout,
	}, nil
}

// Addr returns the address the server actually bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Accept runs the Acceptor loop (spec section 4.4) until the listener is
// closed by Shutdown. It blocks, so callers should run it on its own
// goroutine; this is the idiomatic Go substitute for the spec's
// non-blocking single-threaded accept loop (see SPEC_FULL.md's Open
// Question resolutions) — a blocking Accept here never blocks the
// producer because the producer runs on an entirely separate goroutine.
func (s *Server) Accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorf("accept failed: %v", err)
			continue
		}
		s.handleAccept(conn)
	}
}

func (s *Server) handleAccept(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	var sess *session.Session
	sess = session.New(conn, s.Slot, s.log, s.metrics, func() {
		s.Registry.Remove(sess)
		s.log.Debugf("closed %s (clients now %d)", sess.RemoteAddr(), s.Registry.Len())
	})
	s.Registry.Add(sess)
	s.log.Debugf("accepted %s (clients now %d)", sess.RemoteAddr(), s.Registry.Len())
	sess.Start()
}

// Shutdown implements the Lifecycle teardown sequence (spec section 4.6):
// close the listening socket, wake every subscriber blocked on the frame
// slot, then stop and join every live session.
func (s *Server) Shutdown() {
	s.listener.Close()
	s.Slot.Shutdown()
	s.Registry.Shutdown()
}
