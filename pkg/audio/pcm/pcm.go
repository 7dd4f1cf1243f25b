// Package pcm provides linear PCM audio format handling.
//
// The voice pipeline works with two fixed formats: microphone input is
// L16Mono16K (16 kHz mono 16-bit) and synthesized output is L16Mono24K
// (24 kHz mono 16-bit). All byte data is little-endian signed 16-bit.
package pcm

import (
	"fmt"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1.
	L16Mono16K Format = iota
	// L16Mono24K represents audio/L16; rate=24000; channels=1.
	L16Mono24K
)

// Format represents an audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	}
	panic("pcm: invalid format")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case L16Mono16K, L16Mono24K:
		return 1
	}
	panic("pcm: invalid format")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono24K:
		return 16
	}
	panic("pcm: invalid format")
}

// MIMEType returns the wire MIME type for this format, e.g.
// "audio/pcm;rate=16000".
func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", f.SampleRate())
}

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int) int {
	return bytes * 8 / f.Channels() / f.Depth()
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int {
	return int(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int {
	return f.SamplesInDuration(d) * f.Channels() * f.Depth() / 8
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate() * f.Channels() * f.Depth() / 8
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono24K:
		return "audio/L16; rate=24000; channels=1"
	}
	panic("pcm: invalid format")
}

// Chunk is a chunk of raw PCM audio data in a single format.
type Chunk struct {
	Format Format
	Data   []byte
}

// Duration returns the playable duration of the chunk.
func (c Chunk) Duration() time.Duration {
	return c.Format.Duration(len(c.Data))
}

// Samples returns the number of samples in the chunk.
func (c Chunk) Samples() int {
	return c.Format.Samples(len(c.Data))
}
