// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: PCM (Pulse Code Modulation) audio format handling
//   - resampler: sample rate conversion between PCM formats
//   - portaudio: microphone and speaker device access
package audio
