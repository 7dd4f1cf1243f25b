package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reconhq/recon/pkg/audio/pcm"
)

var upgrader = websocket.Upgrader{}

// fakeService runs a scripted voice service endpoint for one connection.
type fakeService struct {
	t      *testing.T
	server *httptest.Server

	// setup received from the client, available after the handshake.
	setupCh chan setupMessage
	// inbound realtime input messages.
	inputCh chan realtimeInput
	// outbound raw messages to push to the client.
	pushCh chan string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{
		t:       t,
		setupCh: make(chan setupMessage, 1),
		inputCh: make(chan realtimeInput, 16),
		pushCh:  make(chan string, 16),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) endpoint() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") == "" {
		http.Error(w, "missing key", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var setup clientMessage
	if err := conn.ReadJSON(&setup); err != nil || setup.Setup == nil {
		return
	}
	f.setupCh <- *setup.Setup
	conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.RealtimeInput != nil {
				f.inputCh <- *msg.RealtimeInput
			}
		}
	}()
	for {
		select {
		case raw, ok := <-f.pushCh:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func dialTest(t *testing.T, f *fakeService, cfg Config) *Session {
	t.Helper()
	cfg.Endpoint = f.endpoint()
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Dial(ctx, cfg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDialMissingKey(t *testing.T) {
	_, err := Dial(context.Background(), Config{})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Dial = %v, want ErrConnectionFailed", err)
	}
}

func TestDialSendsCapabilities(t *testing.T) {
	f := newFakeService(t)
	dialTest(t, f, Config{
		SystemInstruction: "Keep responses concise.",
		EnableSearch:      true,
	})

	setup := <-f.setupCh
	if setup.Model != "models/"+DefaultModel {
		t.Errorf("model = %q, want %q", setup.Model, "models/"+DefaultModel)
	}
	gc := setup.GenerationConfig
	if gc == nil || len(gc.ResponseModalities) != 1 || gc.ResponseModalities[0] != "AUDIO" {
		t.Errorf("responseModalities = %+v, want [AUDIO]", gc)
	}
	if gc.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != DefaultVoice {
		t.Errorf("voice = %+v, want %q", gc.SpeechConfig, DefaultVoice)
	}
	if setup.SystemInstruction == nil || setup.SystemInstruction.Parts[0].Text != "Keep responses concise." {
		t.Errorf("systemInstruction = %+v", setup.SystemInstruction)
	}
	if len(setup.Tools) != 1 || setup.Tools[0].GoogleSearch == nil {
		t.Errorf("tools = %+v, want googleSearch", setup.Tools)
	}
}

func TestDialRejectedSetup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
		conn.WriteJSON(map[string]any{"error": "nope"})
	}))
	defer server.Close()

	_, err := Dial(context.Background(), Config{
		APIKey:   "k",
		Endpoint: "ws" + strings.TrimPrefix(server.URL, "http"),
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Dial = %v, want ErrConnectionFailed", err)
	}
}

func TestSendAudioAndText(t *testing.T) {
	f := newFakeService(t)
	s := dialTest(t, f, Config{})
	<-f.setupCh

	frame := pcm.Chunk{Format: pcm.L16Mono16K, Data: []byte{1, 2, 3, 4}}
	if err := s.SendAudio(frame); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	in := <-f.inputCh
	if len(in.MediaChunks) != 1 {
		t.Fatalf("mediaChunks = %+v, want one chunk", in.MediaChunks)
	}
	if got, want := in.MediaChunks[0].MIMEType, "audio/pcm;rate=16000"; got != want {
		t.Errorf("mimeType = %q, want %q", got, want)
	}
	if got, want := in.MediaChunks[0].Data, base64.StdEncoding.EncodeToString(frame.Data); got != want {
		t.Errorf("data = %q, want %q", got, want)
	}

	if err := s.SendText("context update"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	in = <-f.inputCh
	if in.Text != "context update" {
		t.Errorf("text = %q, want %q", in.Text, "context update")
	}
}

func TestServerEvents(t *testing.T) {
	f := newFakeService(t)
	s := dialTest(t, f, Config{})
	<-f.setupCh

	audio := base64.StdEncoding.EncodeToString(make([]byte, 480))
	push := func(v any) {
		b, _ := json.Marshal(v)
		f.pushCh <- string(b)
	}
	push(map[string]any{"serverContent": map[string]any{
		"modelTurn": map[string]any{"parts": []any{
			map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": audio}},
			map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "!!!not-base64!!!"}},
		}},
	}})
	push(map[string]any{"serverContent": map[string]any{"interrupted": true}})
	push(map[string]any{"serverContent": map[string]any{"turnComplete": true}})

	var events []*ServerEvent
	for event, err := range s.Events() {
		if err != nil {
			t.Fatalf("event error: %v", err)
		}
		events = append(events, event)
		if len(events) == 3 {
			break
		}
	}

	if events[0].Audio == nil || events[0].Audio.Format != pcm.L16Mono24K || len(events[0].Audio.Data) != 480 {
		t.Errorf("event 0 = %+v, want 480-byte 24k audio", events[0])
	}
	if !events[1].Interrupted {
		t.Errorf("event 1 = %+v, want interrupted", events[1])
	}
	if !events[2].TurnComplete {
		t.Errorf("event 2 = %+v, want turnComplete", events[2])
	}
}

func TestCloseStopsEvents(t *testing.T) {
	f := newFakeService(t)
	s := dialTest(t, f, Config{})
	<-f.setupCh

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// Events after Close: the iterator terminates without yielding.
	count := 0
	for range s.Events() {
		count++
	}
	if count != 0 {
		t.Fatalf("got %d events after Close, want 0", count)
	}

	if err := s.SendText("late"); err == nil {
		t.Fatalf("SendText after Close: expected error")
	}
}
