// Package live manages the duplex streaming connection to the voice
// service.
//
// A Session speaks the bidirectional generate-content protocol over a
// WebSocket: outbound 16 kHz PCM frames and out-of-band text share the
// connection, inbound messages carry 24 kHz synthesized audio, barge-in
// interruption signals, and turn boundaries.
package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/reconhq/recon/pkg/audio/pcm"
)

// ErrConnectionFailed is returned by Dial when the streaming session
// cannot be established: missing credential, network failure, or server
// rejection.
var ErrConnectionFailed = errors.New("live: connection failed")

// DefaultEndpoint is the production WebSocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// DefaultModel is the native-audio model the voice mode uses.
const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

// DefaultVoice is the prebuilt voice used when none is configured.
const DefaultVoice = "Kore"

// Config describes a session to establish.
type Config struct {
	// APIKey authenticates the session. Required.
	APIKey string

	// Endpoint overrides DefaultEndpoint, mainly for tests.
	Endpoint string

	// Model overrides DefaultModel.
	Model string

	// Voice selects the prebuilt voice. Default DefaultVoice.
	Voice string

	// SystemInstruction sets the assistant's behavior for the session.
	SystemInstruction string

	// EnableSearch enables the search tool for real-time answers.
	EnableSearch bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ServerEvent is one inbound message, decoded.
type ServerEvent struct {
	// Audio is a decoded 24 kHz synthesized chunk, nil otherwise.
	Audio *pcm.Chunk

	// Interrupted signals user barge-in: all pending playback for the
	// current turn must stop.
	Interrupted bool

	// TurnComplete marks the end of a server turn.
	TurnComplete bool
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// Session is an open duplex voice session.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	sendMu    sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
	eventsCh  chan eventOrError
}

// Dial establishes a streaming session and blocks until the server
// acknowledges the setup. The context bounds the handshake only.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrConnectionFailed)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", ErrConnectionFailed, err)
	}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	setup := clientMessage{Setup: &setupMessage{
		Model: "models/" + cfg.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: &voiceConfig{
					PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
				},
			},
		},
	}}
	if cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.EnableSearch {
		setup.Setup.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: setup write: %v", ErrConnectionFailed, err)
	}

	// The server acknowledges the setup before streaming begins.
	var ack serverMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: setup ack: %v", ErrConnectionFailed, err)
	}
	if ack.SetupComplete == nil {
		conn.Close()
		return nil, fmt.Errorf("%w: server rejected setup", ErrConnectionFailed)
	}

	s := &Session{
		conn:     conn,
		logger:   cfg.Logger,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}
	go s.readLoop()
	return s, nil
}

// SendAudio transmits one outbound frame of 16 kHz mono PCM. It must be
// callable at the capture cadence without blocking on anything but the
// socket write itself.
func (s *Session) SendAudio(frame pcm.Chunk) error {
	return s.send(clientMessage{RealtimeInput: &realtimeInput{
		MediaChunks: []inlineData{{
			MIMEType: frame.Format.MIMEType(),
			Data:     base64.StdEncoding.EncodeToString(frame.Data),
		}},
	}})
}

// SendText transmits an out-of-band text instruction, used for context
// injection. Ordering relative to audio frames is best-effort.
func (s *Session) SendText(text string) error {
	return s.send(clientMessage{RealtimeInput: &realtimeInput{Text: text}})
}

func (s *Session) send(msg clientMessage) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	select {
	case <-s.closeCh:
		return errors.New("live: session closed")
	default:
	}

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(msg); err == nil {
			str := string(b)
			if len(str) > 200 {
				str = str[:200] + "..."
			}
			s.logger.Debug("live: sending", "content", str)
		}
	}
	return s.conn.WriteJSON(msg)
}

// Events returns an iterator over inbound events. It ends on session
// close; a terminal read failure is yielded as the final error.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close terminates the session. Idempotent; no events are delivered
// after Close returns.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

// readLoop reads server messages until close or a terminal error.
func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
			case s.eventsCh <- eventOrError{err: fmt.Errorf("live: read: %w", err)}:
			}
			return
		}

		if s.logger.Enabled(context.Background(), slog.LevelDebug) {
			str := string(message)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			s.logger.Debug("live: received", "len", len(message), "content", str)
		}

		for _, event := range s.parseEvents(message) {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{event: event}:
			}
		}
	}
}

// parseEvents decodes one server message into zero or more events.
// Undecodable audio parts are dropped with a warning; a single bad chunk
// never ends the session.
func (s *Session) parseEvents(message []byte) []*ServerEvent {
	var msg serverMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.logger.Warn("live: dropping unparseable message", "err", err)
		return nil
	}
	sc := msg.ServerContent
	if sc == nil {
		return nil
	}

	var events []*ServerEvent
	if sc.Interrupted {
		events = append(events, &ServerEvent{Interrupted: true})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				s.logger.Warn("live: dropping undecodable audio chunk", "err", err)
				continue
			}
			events = append(events, &ServerEvent{
				Audio: &pcm.Chunk{Format: pcm.L16Mono24K, Data: data},
			})
		}
	}
	if sc.TurnComplete {
		events = append(events, &ServerEvent{TurnComplete: true})
	}
	return events
}
