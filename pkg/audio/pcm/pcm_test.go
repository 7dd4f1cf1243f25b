package pcm

import (
	"math"
	"testing"
	"time"
)

func TestFormatMath(t *testing.T) {
	tests := []struct {
		format   Format
		rate     int
		mime     string
		duration time.Duration
		bytes    int
	}{
		{L16Mono16K, 16000, "audio/pcm;rate=16000", 128 * time.Millisecond, 4096},
		{L16Mono24K, 24000, "audio/pcm;rate=24000", 500 * time.Millisecond, 24000},
	}
	for _, tt := range tests {
		if got := tt.format.SampleRate(); got != tt.rate {
			t.Errorf("%v SampleRate = %d, want %d", tt.format, got, tt.rate)
		}
		if got := tt.format.MIMEType(); got != tt.mime {
			t.Errorf("%v MIMEType = %q, want %q", tt.format, got, tt.mime)
		}
		if got := tt.format.BytesInDuration(tt.duration); got != tt.bytes {
			t.Errorf("%v BytesInDuration(%v) = %d, want %d", tt.format, tt.duration, got, tt.bytes)
		}
		if got := tt.format.Duration(tt.bytes); got != tt.duration {
			t.Errorf("%v Duration(%d) = %v, want %v", tt.format, tt.bytes, got, tt.duration)
		}
	}
}

func TestChunkDuration(t *testing.T) {
	c := Chunk{Format: L16Mono24K, Data: make([]byte, 24000)}
	if got := c.Duration(); got != 500*time.Millisecond {
		t.Fatalf("Duration = %v, want 500ms", got)
	}
	if got := c.Samples(); got != 12000 {
		t.Fatalf("Samples = %d, want 12000", got)
	}
}

func TestSampleConversionRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	data := SamplesToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("len(data) = %d, want %d", len(data), len(samples)*2)
	}
	back := BytesToSamples(data)
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, back[i], samples[i])
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	if got := RMS(make([]int16, 100)); got != 0 {
		t.Errorf("RMS(silence) = %v, want 0", got)
	}

	// A constant full-scale signal has RMS 1.
	full := make([]int16, 100)
	for i := range full {
		full[i] = -32768
	}
	if got := RMS(full); math.Abs(got-1) > 1e-9 {
		t.Errorf("RMS(full scale) = %v, want 1", got)
	}

	// Half scale.
	half := make([]int16, 100)
	for i := range half {
		half[i] = 16384
	}
	if got := RMS(half); math.Abs(got-0.5) > 1e-3 {
		t.Errorf("RMS(half scale) = %v, want 0.5", got)
	}
}
