// Package resampler converts mono 16-bit PCM between sample rates.
//
// The capture pipeline uses it to adapt microphone devices that cannot
// record at the 16 kHz wire rate. Conversion is done in pure Go, no CGO.
package resampler

import (
	"fmt"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono int16 sample frames from one rate to another.
// A nil *Resampler passes samples through unchanged, which is what New
// returns when the rates already match.
type Resampler struct {
	mu     sync.Mutex
	closed bool
	rs     resampling.Resampler
}

// New creates a Resampler converting from srcRate to dstRate. If the rates
// are equal it returns (nil, nil) and callers can use the nil receiver
// directly.
func New(srcRate, dstRate int) (*Resampler, error) {
	if srcRate == dstRate {
		return nil, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	return &Resampler{rs: rs}, nil
}

// Process converts one frame of samples. The output length varies with the
// rate ratio and the converter's internal latency; early frames may yield
// fewer samples than expected.
func (r *Resampler) Process(samples []int16) ([]int16, error) {
	if r == nil {
		return samples, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("resampler: closed")
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s) / 32768.0
	}
	output, err := r.rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}

	out := make([]int16, len(output))
	for i, v := range output {
		switch {
		case v > 1.0:
			out[i] = 32767
		case v < -1.0:
			out[i] = -32768
		default:
			out[i] = int16(v * 32767.0)
		}
	}
	return out, nil
}

// Close releases converter resources. Safe to call on a nil receiver and
// safe to call more than once.
func (r *Resampler) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.rs = nil
	return nil
}
