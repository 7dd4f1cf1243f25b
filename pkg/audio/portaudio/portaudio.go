// Package portaudio binds the default microphone and speaker devices
// through the PortAudio C library.
//
// It backs the voice capture and playback pipelines when recon runs in a
// terminal. Requires portaudio installed via pkg-config
// (brew install portaudio / apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	// ErrNoDevice is returned when the default input or output device is
	// missing (no microphone or speaker attached).
	ErrNoDevice = errors.New("portaudio: no device")

	// ErrClosed is returned when using a device after Close.
	ErrClosed = errors.New("portaudio: closed")
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New("portaudio: " + C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. Safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// stream wraps a mono int16 PortAudio stream.
type stream struct {
	mu     sync.Mutex
	ptr    unsafe.Pointer
	buf    unsafe.Pointer
	frames int
	closed bool
}

// openStream opens a mono stream. Exactly one of input/output must be true.
func openStream(input bool, sampleRate int, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var inputParams, outputParams *C.PaStreamParameters
	if input {
		dev := C.Pa_GetDefaultInputDevice()
		if dev == C.paNoDevice {
			return nil, ErrNoDevice
		}
		info := C.Pa_GetDeviceInfo(dev)
		inputParams = &C.PaStreamParameters{
			device:           dev,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: info.defaultLowInputLatency,
		}
	} else {
		dev := C.Pa_GetDefaultOutputDevice()
		if dev == C.paNoDevice {
			return nil, ErrNoDevice
		}
		info := C.Pa_GetDeviceInfo(dev)
		outputParams = &C.PaStreamParameters{
			device:           dev,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: info.defaultLowOutputLatency,
		}
	}

	var ptr unsafe.Pointer
	if err := paError(C.pa_open_stream(
		&ptr,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	)); err != nil {
		return nil, err
	}

	s := &stream{
		ptr:    ptr,
		buf:    C.malloc(C.size_t(framesPerBuffer * 2)),
		frames: framesPerBuffer,
	}
	if err := paError(C.pa_start_stream(ptr)); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// read reads up to one hardware buffer of samples.
func (s *stream) read(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	n := min(len(dst), s.frames)
	if err := paError(C.pa_read_stream(s.ptr, s.buf, C.ulong(n))); err != nil {
		return 0, err
	}
	C.memcpy(unsafe.Pointer(&dst[0]), s.buf, C.size_t(n*2))
	return n, nil
}

// write writes up to one hardware buffer of samples, blocking until the
// device has consumed them.
func (s *stream) write(src []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	n := min(len(src), s.frames)
	C.memcpy(s.buf, unsafe.Pointer(&src[0]), C.size_t(n*2))
	if err := paError(C.pa_write_stream(s.ptr, s.buf, C.ulong(n))); err != nil {
		return 0, err
	}
	return n, nil
}

// close stops and releases the stream. Idempotent.
func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.ptr)
	err := paError(C.pa_close_stream(s.ptr))
	C.free(s.buf)
	return err
}
