package snapshot

import (
	"context"
	"time"

	"github.com/mjpegfan/streameye/internal/broadcast"
)

// Logger is the minimal logging surface Source needs.
type Logger interface {
	Debugf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Metrics is the subset of *metrics.Metrics Source reports through. A nil
// Metrics is valid and simply records nothing.
type Metrics interface {
	FramePublished()
}

// Source polls a single HTTP(S) snapshot endpoint at a fixed rate and
// publishes each valid frame into slot, standing in for the stdin
// Segmenter as an alternate producer (SPEC_FULL.md's Supplemented
// Features). It is grounded on the teacher's startFetcher/fetchFrame
// ticker loop in main.go, adapted from a per-camera ring buffer target
// to the single shared broadcast.Slot.
type Source struct {
	client *Client
	url    string
	fps    int
	slot   *broadcast.Slot
	log    Logger
	metric Metrics
}

// NewSource builds a Source. fps is clamped to at least 1.
func NewSource(client *Client, url string, fps int, slot *broadcast.Slot, log Logger, metric Metrics) *Source {
	if fps < 1 {
		fps = 1
	}
	return &Source{client: client, url: url, fps: fps, slot: slot, log: log, metric: metric}
}

// Run polls until ctx is cancelled, publishing every plausible JPEG it
// fetches. It returns nil when ctx is cancelled; fetch errors are logged
// and skipped rather than treated as fatal, since a single failed poll
// should not end the stream for already-connected clients.
func (s *Source) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Source) poll() {
	body, err := s.client.Fetch(s.url)
	if err != nil {
		s.log.Errorf("snapshot fetch: %v", err)
		return
	}
	if !IsPlausibleJPEG(body) {
		s.log.Debugf("snapshot fetch: discarding implausible JPEG (%d bytes)", len(body))
		return
	}
	s.slot.Publish(broadcast.Frame{Data: body})
	if s.metric != nil {
		s.metric.FramePublished()
	}
}
