package broadcast

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeBlocksUntilPublish(t *testing.T) {
	s := NewSlot()
	done := make(chan struct{})
	go func() {
		frame, epoch, ok := s.Subscribe(0)
		if !ok {
			t.Error("expected ok")
		}
		if string(frame.Data) != "hello" {
			t.Errorf("frame = %q, want %q", frame.Data, "hello")
		}
		if epoch != 1 {
			t.Errorf("epoch = %d, want 1", epoch)
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond) // give the subscriber time to block
	s.Publish(Frame{Data: []byte("hello")})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscribe never returned")
	}
}

func TestMissedFramesAreSkipped(t *testing.T) {
	s := NewSlot()
	s.Publish(Frame{Data: []byte("frame1")})
	s.Publish(Frame{Data: []byte("frame2")})
	s.Publish(Frame{Data: []byte("frame3")})

	frame, epoch, ok := s.Subscribe(0)
	if !ok {
		t.Fatal("expected ok")
	}
	if string(frame.Data) != "frame3" {
		t.Errorf("frame = %q, want %q (latest only)", frame.Data, "frame3")
	}
	if epoch != 3 {
		t.Errorf("epoch = %d, want 3", epoch)
	}
}

func TestShutdownWakesSubscribers(t *testing.T) {
	s := NewSlot()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, ok := s.Subscribe(0)
		if ok {
			t.Error("expected !ok since nothing was ever published")
		}
	}()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber never woke up on shutdown")
	}
}

func TestSubscribeAfterShutdownWithFrame(t *testing.T) {
	s := NewSlot()
	s.Publish(Frame{Data: []byte("last")})

	// A subscriber that hasn't seen epoch 1 yet still gets it, shutdown or not.
	s.Shutdown()
	frame, epoch, ok := s.Subscribe(0)
	if !ok {
		t.Fatal("expected ok: a frame was published before shutdown")
	}
	if string(frame.Data) != "last" || epoch != 1 {
		t.Errorf("got (%q, %d), want (\"last\", 1)", frame.Data, epoch)
	}

	// A subscriber that has already seen the latest epoch gets told to stop.
	_, _, ok = s.Subscribe(1)
	if ok {
		t.Error("expected !ok: caller already saw the latest epoch and the slot is shut down")
	}
}
