package voice

import (
	"context"
	"sync"
)

// Mode owns at most one live Controller and enforces that activating a
// new session first fully tears down the previous one.
type Mode struct {
	mu      sync.Mutex
	current *Controller
}

// NewMode creates an inactive Mode.
func NewMode() *Mode {
	return &Mode{}
}

// Activate starts a new session, replacing any active one. The previous
// session is closed and waited on before the new one dials, so two
// sessions never hold the microphone or the transport at the same time.
func (m *Mode) Activate(ctx context.Context, opts Options) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
		<-m.current.Done()
		m.current = nil
	}

	c := New(opts)
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	m.current = c
	return c, nil
}

// Deactivate closes the active session, if any, and waits for teardown.
func (m *Mode) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}
	m.current.Close()
	<-m.current.Done()
	m.current = nil
}

// Current returns the active controller, or nil.
func (m *Mode) Current() *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
