// Package voice runs a live voice session end to end: microphone capture,
// the duplex streaming transport, and scheduled playback, under one state
// machine.
//
// A Controller is single-use. Start connects and begins streaming; Close
// (or a fatal error) tears everything down exactly once. The Mode
// supervisor layers the one-session-at-a-time rule on top.
package voice

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/reconhq/recon/pkg/audio/pcm"
	"github.com/reconhq/recon/pkg/leadgen"
	"github.com/reconhq/recon/pkg/voice/capture"
	"github.com/reconhq/recon/pkg/voice/live"
	"github.com/reconhq/recon/pkg/voice/playback"
)

// Transport is the duplex streaming session the controller drives. A
// *live.Session satisfies it.
type Transport interface {
	SendAudio(frame pcm.Chunk) error
	SendText(text string) error
	Events() iter.Seq2[*live.ServerEvent, error]
	Close() error
}

// Dialer establishes a Transport. The context bounds the handshake.
type Dialer func(ctx context.Context) (Transport, error)

// Options configures a Controller. Dial, Mic, and Sink are required.
type Options struct {
	// Dial establishes the streaming transport.
	Dial Dialer

	// Mic acquires the microphone.
	Mic capture.Opener

	// Sink plays synthesized audio.
	Sink playback.Sink

	// Clock overrides the playback timeline, mainly for tests.
	Clock playback.Clock

	// FrameSize overrides capture.DefaultFrameSize.
	FrameSize int

	// OnStatus observes every status transition. Called from controller
	// goroutines; must not call back into the controller.
	OnStatus func(Status)

	// OnLevel observes the microphone loudness, [0,1].
	OnLevel func(float64)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Controller runs one voice session.
type Controller struct {
	opts   Options
	logger *slog.Logger

	capture   *capture.Pipeline
	scheduler *playback.Scheduler

	mu         sync.Mutex
	status     Status
	transport  Transport
	lastCtxID  string
	pendingCtx string

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// New creates a Controller. It does nothing until Start.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		opts:   opts,
		logger: opts.Logger,
		status: StatusUnknown,
		done:   make(chan struct{}),
	}
	c.scheduler = playback.NewScheduler(opts.Sink, playback.Options{
		Format: pcm.L16Mono24K,
		Clock:  opts.Clock,
		OnIdle: c.onPlaybackIdle,
		Logger: opts.Logger,
	})
	c.capture = capture.New(opts.Mic, capture.Options{
		FrameSize: opts.FrameSize,
		OnFrame:   c.onFrame,
		OnLevel:   opts.OnLevel,
		Logger:    opts.Logger,
	})
	return c
}

// Start acquires resources and begins streaming. On any setup failure
// everything already acquired is released, the controller ends in
// StatusError, and the setup error is returned (and available from Err).
func (c *Controller) Start(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	transport, err := c.opts.Dial(ctx)
	if err != nil {
		err = fmt.Errorf("voice: connect: %w", err)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	select {
	case <-c.done:
		// Closed while dialing.
		c.mu.Unlock()
		transport.Close()
		return errors.New("voice: closed")
	default:
	}
	c.transport = transport
	pending := c.pendingCtx
	c.pendingCtx = ""
	c.mu.Unlock()

	if err := c.capture.Start(); err != nil {
		err = fmt.Errorf("voice: %w", err)
		c.fail(err)
		return err
	}

	c.setStatus(StatusListening)

	if pending != "" {
		if err := transport.SendText(pending); err != nil {
			c.logger.Warn("voice: context injection failed", "err", err)
		}
	}

	go c.dispatchLoop(transport)
	return nil
}

// SetContext tells the model which company the user is looking at. Calls
// for the same company as the previous call are dropped, so repeated
// selections of one entity cost a single message. Before the transport
// is up the latest context is held and injected right after connect.
func (c *Controller) SetContext(company *leadgen.Company) {
	if company == nil {
		return
	}

	c.mu.Lock()
	if c.status.Terminal() {
		c.mu.Unlock()
		return
	}
	if company.ID == c.lastCtxID {
		c.mu.Unlock()
		return
	}
	c.lastCtxID = company.ID
	msg := "The user is now looking at this company: " + company.Summary() +
		". Keep this context in mind for the conversation."
	transport := c.transport
	if transport == nil {
		c.pendingCtx = msg
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := transport.SendText(msg); err != nil {
		c.logger.Warn("voice: context injection failed", "err", err)
	}
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Done is closed when the session has fully torn down.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the fatal error that ended the session, nil after a clean
// Close. Valid once Done is closed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the session and releases the microphone, the playback sink,
// and the transport. Idempotent; safe from any goroutine. No status
// callback fires after Close returns.
func (c *Controller) Close() error {
	c.teardown(StatusClosed, nil)
	return nil
}

// fail ends the session with a fatal error.
func (c *Controller) fail(err error) {
	c.teardown(StatusError, err)
}

// teardown releases every resource exactly once. Each release is
// independent: a panic-free best effort on all three even if one errors.
func (c *Controller) teardown(final Status, cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		transport := c.transport
		c.transport = nil
		c.mu.Unlock()

		c.capture.Stop()
		if err := c.scheduler.Close(); err != nil {
			c.logger.Warn("voice: playback close", "err", err)
		}
		if transport != nil {
			if err := transport.Close(); err != nil {
				c.logger.Warn("voice: transport close", "err", err)
			}
		}

		c.setStatus(final)
		close(c.done)

		if cause != nil {
			c.logger.Error("voice: session ended", "err", cause)
		} else {
			c.logger.Info("voice: session closed")
		}
	})
}

// setStatus transitions and notifies. Terminal states are sticky.
func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s || c.status.Terminal() {
		c.mu.Unlock()
		return
	}
	c.status = s
	cb := c.opts.OnStatus
	c.mu.Unlock()

	c.logger.Debug("voice: status", "status", s)
	if cb != nil {
		cb(s)
	}
}

// onFrame forwards one captured frame. Send failures are dropped, not
// queued: the dispatch loop notices a dead transport and ends the
// session; a stall here would block the capture loop.
func (c *Controller) onFrame(frame pcm.Chunk) {
	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return
	}
	if err := transport.SendAudio(frame); err != nil {
		c.logger.Debug("voice: dropping frame", "err", err)
	}
}

// onPlaybackIdle returns to listening when the model's speech has fully
// played out.
func (c *Controller) onPlaybackIdle() {
	c.mu.Lock()
	speaking := c.status == StatusSpeaking
	c.mu.Unlock()
	if speaking {
		c.setStatus(StatusListening)
	}
}

// dispatchLoop consumes transport events until the session ends.
func (c *Controller) dispatchLoop(transport Transport) {
	for event, err := range transport.Events() {
		if err != nil {
			c.fail(fmt.Errorf("voice: transport: %w", err))
			return
		}
		c.handleEvent(event)
	}

	// Event stream ended without an error: server closed the connection.
	select {
	case <-c.done:
	default:
		c.fail(errors.New("voice: transport closed by server"))
	}
}

func (c *Controller) handleEvent(event *live.ServerEvent) {
	if event == nil {
		return
	}

	if event.Interrupted {
		// Barge-in: everything scheduled for the current turn is stale.
		c.scheduler.Flush()
		c.onPlaybackIdle()
	}

	if event.Audio != nil {
		c.setStatus(StatusSpeaking)
		if err := c.scheduler.Enqueue(*event.Audio); err != nil {
			c.logger.Warn("voice: enqueue failed", "err", err)
		}
	}

	// TurnComplete carries no action: the speaking->listening transition
	// follows actual playback, not the server's notion of the turn end.
}
