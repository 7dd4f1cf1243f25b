package portaudio

import (
	"sync"
	"time"

	"github.com/reconhq/recon/pkg/audio/pcm"
)

// Microphone captures mono int16 audio from the default input device.
// It implements the capture pipeline's Device interface.
type Microphone struct {
	stream *stream
	rate   int
}

// OpenMicrophone opens the default input device at the given rate.
// frameSize is the number of samples per hardware buffer.
func OpenMicrophone(sampleRate, frameSize int) (*Microphone, error) {
	s, err := openStream(true, sampleRate, frameSize)
	if err != nil {
		return nil, err
	}
	return &Microphone{stream: s, rate: sampleRate}, nil
}

// SampleRate returns the capture rate in Hz.
func (m *Microphone) SampleRate() int { return m.rate }

// ReadFrame blocks until a hardware buffer is available and copies it
// into dst. Returns the number of samples read.
func (m *Microphone) ReadFrame(dst []int16) (int, error) {
	return m.stream.read(dst)
}

// Close releases the input device. Idempotent.
func (m *Microphone) Close() error { return m.stream.close() }

// Speaker plays mono int16 audio on the default output device. Play is
// non-blocking: data is appended to a pending buffer drained by a writer
// goroutine, so Stop can discard queued audio immediately. It implements
// the playback pipeline's Sink interface.
type Speaker struct {
	stream *stream
	format pcm.Format

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	closed  bool
	done    chan struct{}
}

// speakerWriteFrame is the granularity of device writes. Small enough
// that Stop takes effect within ~20ms of playback.
const speakerWriteFrame = 20 * time.Millisecond

// OpenSpeaker opens the default output device for the given format.
func OpenSpeaker(format pcm.Format) (*Speaker, error) {
	frames := format.SamplesInDuration(speakerWriteFrame)
	s, err := openStream(false, format.SampleRate(), frames)
	if err != nil {
		return nil, err
	}
	sp := &Speaker{
		stream: s,
		format: format,
		done:   make(chan struct{}),
	}
	sp.cond = sync.NewCond(&sp.mu)
	go sp.writeLoop()
	return sp, nil
}

// Play queues the chunk for playback and returns immediately.
func (sp *Speaker) Play(chunk pcm.Chunk) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return ErrClosed
	}
	sp.pending = append(sp.pending, chunk.Data...)
	sp.cond.Signal()
	return nil
}

// Stop discards all queued audio. Whatever the device already holds in
// its own buffer (at most one write frame) still plays out.
func (sp *Speaker) Stop() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pending = nil
	return nil
}

// Close stops the writer and releases the output device. Idempotent.
func (sp *Speaker) Close() error {
	sp.mu.Lock()
	if sp.closed {
		sp.mu.Unlock()
		return nil
	}
	sp.closed = true
	sp.pending = nil
	sp.cond.Signal()
	sp.mu.Unlock()

	<-sp.done
	return sp.stream.close()
}

func (sp *Speaker) writeLoop() {
	defer close(sp.done)

	frameBytes := sp.format.BytesInDuration(speakerWriteFrame)
	frame := make([]int16, sp.format.SamplesInDuration(speakerWriteFrame))
	for {
		sp.mu.Lock()
		for len(sp.pending) == 0 && !sp.closed {
			sp.cond.Wait()
		}
		if sp.closed {
			sp.mu.Unlock()
			return
		}
		n := min(len(sp.pending), frameBytes)
		chunk := sp.pending[:n]
		for i := range frame {
			frame[i] = 0
		}
		for i := 0; i < n/2; i++ {
			frame[i] = int16(chunk[i*2]) | int16(chunk[i*2+1])<<8
		}
		sp.pending = sp.pending[n:]
		sp.mu.Unlock()

		// Blocking device write paces the loop at real time.
		if _, err := sp.stream.write(frame); err != nil {
			return
		}
	}
}
