// Package segmenter implements the Frame Segmenter (spec section 4.1): it
// carves a byte stream into discrete JPEG frames without interpreting
// JPEG beyond the separator pattern between frames and the start/end
// markers of the last frame at end of input.
package segmenter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mjpegfan/streameye/internal/jpeg"
)

const (
	// DefaultInputBufLen is INPUT_BUF_LEN, the chunk size read from the
	// source on each iteration. Spec recommends 16-64 KiB.
	DefaultInputBufLen = 32 * 1024
	// DefaultJpegBufLen is JPEG_BUF_LEN, the accumulator capacity. Spec
	// recommends at least 2 MiB.
	DefaultJpegBufLen = 4 * 1024 * 1024
)

// Logger is the minimal logging surface the segmenter needs; it is
// satisfied by *zap.SugaredLogger.
type Logger interface {
	Errorf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Debugf(template string, args ...interface{})
}

// Segmenter reads a concatenated stream of JPEG frames from r and emits
// each complete frame it finds.
type Segmenter struct {
	r           io.Reader
	log         Logger
	inputBufLen int
	jpegBufLen  int
	separator   []byte
	explicit    bool
	acc         []byte
	readChunk   []byte
	onDiscard   func()
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithBufferSizes overrides INPUT_BUF_LEN and JPEG_BUF_LEN.
func WithBufferSizes(inputBufLen, jpegBufLen int) Option {
	return func(s *Segmenter) {
		s.inputBufLen = inputBufLen
		s.jpegBufLen = jpegBufLen
	}
}

// WithSeparator sets an explicit separator. An empty separator keeps the
// segmenter in auto-detect mode (FF D9 FF D8).
func WithSeparator(sep []byte) Option {
	return func(s *Segmenter) {
		if len(sep) > 0 {
			s.separator = append([]byte(nil), sep...)
			s.explicit = true
		}
	}
}

// WithDiscardHook registers fn to be called every time the overflow
// policy discards the accumulator, so callers can surface it as a
// metric in addition to the log line accumulate already emits.
func WithDiscardHook(fn func()) Option {
	return func(s *Segmenter) {
		s.onDiscard = fn
	}
}

// New builds a Segmenter reading from r.
func New(r io.Reader, log Logger, opts ...Option) *Segmenter {
	s := &Segmenter{
		r:           r,
		log:         log,
		inputBufLen: DefaultInputBufLen,
		jpegBufLen:  DefaultJpegBufLen,
		separator:   []byte{0xFF, 0xD9, 0xFF, 0xD8},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.explicit && len(s.separator) < 4 {
		s.log.Infof("explicit separator is shorter than 4 bytes; it may collide with frame data")
	}
	s.readChunk = make([]byte, s.inputBufLen)
	s.acc = make([]byte, 0, s.jpegBufLen)
	return s
}

// Run reads from the source until EOF or a read error, calling emit with
// each complete frame as it is found. Every slice handed to emit is a
// fresh copy (see drain below), so emit may keep it.
//
// In auto mode, a complete JPEG (SOI through EOI) left in the accumulator
// at EOF is emitted as the stream's last frame, since no separator follows
// it. In explicit mode, bytes after the last separator are discarded.
//
// Run returns nil on a clean EOF (graceful shutdown per spec section
// 4.1's Termination clause) and a non-nil error for any other read
// failure.
func (s *Segmenter) Run(emit func(frame []byte)) error {
	for {
		n, err := s.r.Read(s.readChunk)
		if n > 0 {
			if err := s.accumulate(s.readChunk[:n]); err != nil {
				s.log.Errorf("%v", err)
			}
			s.drain(emit)
		}
		if err != nil {
			if err == io.EOF {
				if !s.explicit && jpeg.IsValid(s.acc) {
					emit(append([]byte(nil), s.acc...))
				}
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

// accumulate appends chunk to the accumulator, applying the overflow
// policy: if appending would push the accumulator above JPEG_BUF_LEN-1,
// the entire accumulator (including the incoming chunk) is discarded and
// accumulation resumes from the next read.
func (s *Segmenter) accumulate(chunk []byte) error {
	if len(s.acc)+len(chunk) > s.jpegBufLen-1 {
		discarded := len(s.acc)
		s.acc = s.acc[:0]
		if s.onDiscard != nil {
			s.onDiscard()
		}
		return fmt.Errorf("discarded %d buffered bytes: incoming chunk would exceed JPEG_BUF_LEN", discarded)
	}
	s.acc = append(s.acc, chunk...)
	return nil
}

// drain repeatedly searches the trailing search window for a separator
// match and emits every complete frame it finds, retaining the remainder
// as the start of the next frame.
func (s *Segmenter) drain(emit func(frame []byte)) {
	for {
		windowSize := 2 * s.inputBufLen
		if windowSize > len(s.acc) {
			windowSize = len(s.acc)
		}
		windowStart := len(s.acc) - windowSize
		idx := bytes.Index(s.acc[windowStart:], s.separator)
		if idx < 0 {
			return
		}
		matchAt := windowStart + idx

		var frameEnd, remainderStart int
		if s.explicit {
			frameEnd = matchAt
			remainderStart = matchAt + len(s.separator)
		} else {
			// Auto mode keeps the EOI on the emitted frame and the SOI on
			// the remainder: FF D9 | FF D8.
			frameEnd = matchAt + 2
			remainderStart = matchAt + 2
		}

		frame := append([]byte(nil), s.acc[:frameEnd]...)
		emit(frame)

		remainder := append([]byte(nil), s.acc[remainderStart:]...)
		s.acc = append(s.acc[:0], remainder...)
	}
}
