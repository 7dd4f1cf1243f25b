// Package playback turns inbound synthesized audio chunks into gapless,
// ordered speaker output.
//
// Chunks are scheduled back-to-back on an output timeline: each buffer
// starts at max(clock now, cursor) and the cursor advances by the buffer's
// duration. The cursor never moves backward while buffers are scheduled,
// which keeps bursty arrivals gapless and ordered. A barge-in flush stops
// everything at once and resets the cursor to the current clock position.
package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/reconhq/recon/pkg/audio/pcm"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("playback: closed")

// Sink is the output device buffers are played on. Play must not block;
// Stop discards everything queued on the device.
type Sink interface {
	Play(chunk pcm.Chunk) error
	Stop() error
	Close() error
}

// Options configures a Scheduler.
type Options struct {
	// Format is the expected chunk format. Default pcm.L16Mono24K.
	Format pcm.Format

	// Clock is the output timeline. Default NewWallClock().
	Clock Clock

	// OnIdle is called, without internal locks held, each time the last
	// scheduled buffer finishes playing. It is not called after Flush.
	OnIdle func()

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler schedules decoded audio buffers on a Sink.
type Scheduler struct {
	sink   Sink
	clock  Clock
	format pcm.Format
	onIdle func()
	logger *slog.Logger

	mu        sync.Mutex
	closed    bool
	cursor    time.Duration
	nextID    int64
	scheduled map[int64]*entry
}

// entry is one scheduled buffer between Enqueue and completion.
type entry struct {
	chunk      pcm.Chunk
	start, end time.Duration
	startTimer Timer
	endTimer   Timer
}

// NewScheduler creates a Scheduler playing on sink.
func NewScheduler(sink Sink, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = NewWallClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Scheduler{
		sink:      sink,
		clock:     opts.Clock,
		format:    opts.Format,
		onIdle:    opts.OnIdle,
		logger:    opts.Logger,
		scheduled: make(map[int64]*entry),
	}
	s.cursor = s.clock.Now()
	return s
}

// Enqueue schedules one chunk to start at max(clock now, cursor) and
// advances the cursor by the chunk's duration.
//
// Malformed chunks (wrong format, empty, or odd byte length) are dropped
// with a warning; they never affect the cursor and never return an error.
func (s *Scheduler) Enqueue(chunk pcm.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if chunk.Format != s.format || len(chunk.Data) == 0 || len(chunk.Data)%2 != 0 {
		s.logger.Warn("playback: dropping malformed chunk",
			"format", chunk.Format, "bytes", len(chunk.Data))
		return nil
	}

	now := s.clock.Now()
	start := max(now, s.cursor)
	end := start + chunk.Duration()
	s.cursor = end

	id := s.nextID
	s.nextID++
	e := &entry{chunk: chunk, start: start, end: end}
	s.scheduled[id] = e
	e.startTimer = s.clock.AfterFunc(start-now, func() { s.startEntry(id) })
	e.endTimer = s.clock.AfterFunc(end-now, func() { s.finishEntry(id) })
	return nil
}

// startEntry hands the buffer to the sink when its start time arrives.
// A buffer flushed between scheduling and start is simply absent.
func (s *Scheduler) startEntry(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.scheduled[id]
	if !ok || s.closed {
		return
	}
	if err := s.sink.Play(e.chunk); err != nil {
		s.logger.Warn("playback: sink rejected buffer", "err", err)
	}
}

// finishEntry removes the buffer at its end time and reports idle when it
// was the last one.
func (s *Scheduler) finishEntry(id int64) {
	s.mu.Lock()
	if _, ok := s.scheduled[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.scheduled, id)
	idle := len(s.scheduled) == 0 && !s.closed
	onIdle := s.onIdle
	s.mu.Unlock()

	if idle && onIdle != nil {
		onIdle()
	}
}

// Flush immediately stops and discards every scheduled and playing buffer
// and resets the cursor to the current clock position. No completion or
// idle callback fires for flushed buffers. Used on barge-in.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Scheduler) flushLocked() {
	for id, e := range s.scheduled {
		e.startTimer.Stop()
		e.endTimer.Stop()
		delete(s.scheduled, id)
	}
	s.cursor = s.clock.Now()
	if err := s.sink.Stop(); err != nil {
		s.logger.Warn("playback: sink stop failed", "err", err)
	}
}

// Pending returns the number of buffers scheduled or playing.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

// Cursor returns the position the next enqueued buffer would end no
// earlier than.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Close flushes all buffers and releases the sink. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.flushLocked()
	s.closed = true
	return s.sink.Close()
}
