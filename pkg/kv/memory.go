package kv

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store, safe for concurrent use. It backs tests
// that need persistence without a disk directory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[key.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	cp := append([]byte(nil), value...)
	m.mu.Lock()
	m.data[key.String()] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.data, key.String())
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := listPrefix(prefix)

	m.mu.RLock()
	var matches []Entry
	for k, v := range m.data {
		if p == nil || bytes.HasPrefix([]byte(k), p) {
			matches = append(matches, Entry{
				Key:   decode([]byte(k)),
				Value: append([]byte(nil), v...),
			})
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Key.String() < matches[j].Key.String()
	})

	return func(yield func(Entry, error) bool) {
		for _, e := range matches {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (m *Memory) Close() error {
	return nil
}
