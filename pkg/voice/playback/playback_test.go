package playback

import (
	"testing"
	"time"

	"github.com/reconhq/recon/pkg/audio/pcm"
)

// fakeSink records Play/Stop/Close calls.
type fakeSink struct {
	played  []pcm.Chunk
	stops   int
	closes  int
	playErr error
}

func (f *fakeSink) Play(chunk pcm.Chunk) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.played = append(f.played, chunk)
	return nil
}

func (f *fakeSink) Stop() error  { f.stops++; return nil }
func (f *fakeSink) Close() error { f.closes++; return nil }

func chunk24k(d time.Duration) pcm.Chunk {
	return pcm.Chunk{Format: pcm.L16Mono24K, Data: make([]byte, pcm.L16Mono24K.BytesInDuration(d))}
}

func newTestScheduler(t *testing.T, opts Options) (*Scheduler, *fakeSink, *ManualClock) {
	t.Helper()
	clock := NewManualClock()
	sink := &fakeSink{}
	opts.Format = pcm.L16Mono24K
	opts.Clock = clock
	s := NewScheduler(sink, opts)
	t.Cleanup(func() { s.Close() })
	return s, sink, clock
}

func TestOrderingInvariant(t *testing.T) {
	s, _, clock := newTestScheduler(t, Options{})

	// Bursty arrival: three 500ms chunks in one tick must land
	// back-to-back with the cursor tracking each end time.
	durations := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}
	var wantCursor time.Duration
	for i, d := range durations {
		if err := s.Enqueue(chunk24k(d)); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
		wantCursor += d
		if got := s.Cursor(); got != wantCursor {
			t.Fatalf("cursor after chunk %d = %v, want %v", i, got, wantCursor)
		}
	}
	if got := s.Pending(); got != 3 {
		t.Fatalf("Pending = %d, want 3", got)
	}

	// The cursor never decreases while buffers are scheduled.
	clock.Advance(100 * time.Millisecond)
	if got := s.Cursor(); got != wantCursor {
		t.Fatalf("cursor moved to %v after clock advance, want %v", got, wantCursor)
	}
}

func TestNormalTurnScenario(t *testing.T) {
	var idles int
	s, sink, clock := newTestScheduler(t, Options{OnIdle: func() { idles++ }})

	// Three 500ms chunks arriving 100ms apart.
	for i := range 3 {
		if err := s.Enqueue(chunk24k(500 * time.Millisecond)); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
		clock.Advance(100 * time.Millisecond)
	}

	// Arrival kept pace with playback: total speaking time is 1500ms
	// from the first start, no gaps.
	if got := s.Cursor(); got != 1500*time.Millisecond {
		t.Fatalf("cursor = %v, want 1500ms", got)
	}

	// 300ms elapsed so far; play out the rest.
	clock.Advance(1200 * time.Millisecond)
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending = %d, want 0 after playback", got)
	}
	if idles != 1 {
		t.Fatalf("idle fired %d times, want 1", idles)
	}
	if len(sink.played) != 3 {
		t.Fatalf("sink played %d buffers, want 3", len(sink.played))
	}
}

func TestFlushInvariant(t *testing.T) {
	var idles int
	s, sink, clock := newTestScheduler(t, Options{OnIdle: func() { idles++ }})

	for range 3 {
		s.Enqueue(chunk24k(500 * time.Millisecond))
	}
	clock.Advance(600 * time.Millisecond) // first done, second playing

	s.Flush()

	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending after Flush = %d, want 0", got)
	}
	if got, want := s.Cursor(), clock.Now(); got != want {
		t.Fatalf("cursor after Flush = %v, want clock %v", got, want)
	}
	if sink.stops != 1 {
		t.Fatalf("sink.Stop calls = %d, want 1", sink.stops)
	}

	// No completion fires for flushed buffers, so idle must not fire
	// when their end times pass.
	idles = 0
	clock.Advance(2 * time.Second)
	if idles != 0 {
		t.Fatalf("idle fired %d times after Flush, want 0", idles)
	}
}

func TestBargeInLateChunk(t *testing.T) {
	s, sink, clock := newTestScheduler(t, Options{})

	for range 3 {
		s.Enqueue(chunk24k(500 * time.Millisecond))
	}
	clock.Advance(600 * time.Millisecond)
	s.Flush()

	// A late chunk from the superseded turn arrives after the flush.
	// Without turn IDs on the wire it is scheduled fresh at the current
	// clock position.
	if err := s.Enqueue(chunk24k(500 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue after Flush: %v", err)
	}
	if got, want := s.Cursor(), clock.Now()+500*time.Millisecond; got != want {
		t.Fatalf("cursor = %v, want %v", got, want)
	}

	clock.Advance(500 * time.Millisecond)
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending = %d, want 0", got)
	}
	// Played: the 2 buffers that started before the flush, plus the late one.
	if len(sink.played) != 3 {
		t.Fatalf("sink played %d buffers, want 3", len(sink.played))
	}
}

func TestMalformedChunkDropped(t *testing.T) {
	s, _, _ := newTestScheduler(t, Options{})

	before := s.Cursor()
	cases := []pcm.Chunk{
		{Format: pcm.L16Mono24K},                           // empty
		{Format: pcm.L16Mono24K, Data: []byte{1}},          // odd length
		{Format: pcm.L16Mono16K, Data: make([]byte, 3200)}, // wrong format
	}
	for i, c := range cases {
		if err := s.Enqueue(c); err != nil {
			t.Fatalf("Enqueue malformed %d: %v", i, err)
		}
	}
	if got := s.Cursor(); got != before {
		t.Fatalf("cursor moved to %v on malformed input, want %v", got, before)
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending = %d, want 0", got)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	s, sink, _ := newTestScheduler(t, Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if sink.closes != 1 {
		t.Fatalf("sink.Close calls = %d, want 1", sink.closes)
	}
	if err := s.Enqueue(chunk24k(100 * time.Millisecond)); err != ErrClosed {
		t.Fatalf("Enqueue after Close = %v, want ErrClosed", err)
	}
}

func TestGapAfterSilence(t *testing.T) {
	s, _, clock := newTestScheduler(t, Options{})

	s.Enqueue(chunk24k(200 * time.Millisecond))
	clock.Advance(1 * time.Second) // playback finished long ago

	// Next turn starts at the current clock, not at the stale cursor.
	s.Enqueue(chunk24k(200 * time.Millisecond))
	if got, want := s.Cursor(), clock.Now()+200*time.Millisecond; got != want {
		t.Fatalf("cursor = %v, want %v", got, want)
	}
}
