// Package capture turns a live microphone into a stream of outbound audio
// frames plus a real-time loudness level for UI feedback.
//
// Frames are fixed-size 16 kHz mono 16-bit PCM. Devices that record at a
// different rate are adapted through the resampler. Frames are handed to
// the sink synchronously; the sink decides whether to forward or drop.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reconhq/recon/pkg/audio/pcm"
	"github.com/reconhq/recon/pkg/audio/resampler"
)

// Setup failures. Both require user action and are fatal to a session.
var (
	// ErrPermissionDenied means the user or OS refused microphone access.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")

	// ErrDeviceUnavailable means no usable input device exists.
	ErrDeviceUnavailable = errors.New("capture: no input device")
)

// WireFormat is the outbound frame format.
const WireFormat = pcm.L16Mono16K

// DefaultFrameSize is the number of 16 kHz samples per produced frame,
// ~128ms. A latency/overhead tradeoff; tune through Options.FrameSize.
const DefaultFrameSize = 2048

// Device is an open microphone producing mono int16 samples.
type Device interface {
	// SampleRate returns the device capture rate in Hz.
	SampleRate() int

	// ReadFrame blocks until samples are available and fills dst.
	// Returns the number of samples read; an error ends the capture loop.
	ReadFrame(dst []int16) (int, error)

	// Close releases the device and unblocks any pending ReadFrame.
	Close() error
}

// Opener acquires a microphone. Implementations surface
// ErrPermissionDenied / ErrDeviceUnavailable for setup failures.
type Opener func() (Device, error)

// Options configures a Pipeline.
type Options struct {
	// FrameSize is the samples per produced frame. Default DefaultFrameSize.
	FrameSize int

	// OnFrame receives each produced frame, synchronously, in capture
	// order. Must not block; the next device read waits on it.
	OnFrame func(frame pcm.Chunk)

	// OnLevel receives the RMS loudness of each frame, normalized to
	// [0,1] and scaled x5 for perceptual sensitivity.
	OnLevel func(level float64)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Pipeline owns the microphone between Start and Stop.
type Pipeline struct {
	open Opener
	opts Options

	mu      sync.Mutex
	device  Device
	started bool
	done    chan struct{}
}

// New creates a Pipeline that will acquire its device through open.
func New(open Opener, opts Options) *Pipeline {
	if opts.FrameSize <= 0 {
		opts.FrameSize = DefaultFrameSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{open: open, opts: opts}
}

// Start acquires the microphone and begins producing frames until Stop.
// Returns ErrPermissionDenied or ErrDeviceUnavailable (wrapped) when the
// device cannot be acquired.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("capture: already started")
	}

	device, err := p.open()
	if err != nil {
		return fmt.Errorf("capture: open device: %w", err)
	}

	rs, err := resampler.New(device.SampleRate(), WireFormat.SampleRate())
	if err != nil {
		device.Close()
		return fmt.Errorf("capture: %w", err)
	}

	p.device = device
	p.started = true
	p.done = make(chan struct{})
	go p.readLoop(device, rs, p.done)
	return nil
}

// Stop releases the microphone and halts frame production. Idempotent;
// calling it when not started is a no-op. It returns after the capture
// loop has exited, so no frame is produced after Stop.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	device := p.device
	done := p.done
	p.device = nil
	p.mu.Unlock()

	device.Close()
	<-done
}

// readLoop pulls device buffers, resamples to the wire rate, and emits
// fixed-size frames.
func (p *Pipeline) readLoop(device Device, rs *resampler.Resampler, done chan struct{}) {
	defer close(done)
	defer rs.Close()

	// Read from the device in buffers that resample to roughly one frame.
	devFrame := p.opts.FrameSize * device.SampleRate() / WireFormat.SampleRate()
	buf := make([]int16, devFrame)
	var acc []int16

	for {
		n, err := device.ReadFrame(buf)
		if err != nil {
			// Normal exit path: Stop closed the device under us.
			return
		}
		if n == 0 {
			continue
		}

		out, err := rs.Process(buf[:n])
		if err != nil {
			p.opts.Logger.Warn("capture: resample failed, dropping buffer", "err", err)
			continue
		}
		acc = append(acc, out...)

		for len(acc) >= p.opts.FrameSize {
			frame := make([]int16, p.opts.FrameSize)
			copy(frame, acc)
			acc = acc[p.opts.FrameSize:]
			p.emit(frame)
		}
	}
}

// emit computes the loudness level and forwards one frame. Level
// reporting must not delay frame forwarding, so the frame goes out first.
func (p *Pipeline) emit(frame []int16) {
	if p.opts.OnFrame != nil {
		p.opts.OnFrame(pcm.Chunk{Format: WireFormat, Data: pcm.SamplesToBytes(frame)})
	}
	if p.opts.OnLevel != nil {
		p.opts.OnLevel(min(1, pcm.RMS(frame)*5))
	}
}
