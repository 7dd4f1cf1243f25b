package kv

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// stores the suite runs against.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	m := NewMemory()
	t.Cleanup(func() { m.Close() })
	return map[string]Store{"badger": b, "memory": m}
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := Key{"saved", "company", "lead-1"}

			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing = %v, want ErrNotFound", err)
			}

			if err := s.Set(ctx, key, []byte("v1")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil || !bytes.Equal(got, []byte("v1")) {
				t.Fatalf("Get = %q, %v, want v1", got, err)
			}

			// Overwrite.
			if err := s.Set(ctx, key, []byte("v2")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _ = s.Get(ctx, key)
			if !bytes.Equal(got, []byte("v2")) {
				t.Fatalf("Get after overwrite = %q, want v2", got)
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after Delete = %v, want ErrNotFound", err)
			}
			// Deleting an absent key is fine.
			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete absent: %v", err)
			}
		})
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed := map[string]Key{
				"c1": {"saved", "company", "lead-1"},
				"c2": {"saved", "company", "lead-2"},
				"j1": {"saved", "job", "job-1"},
			}
			for val, key := range seed {
				if err := s.Set(ctx, key, []byte(val)); err != nil {
					t.Fatalf("Set %v: %v", key, err)
				}
			}

			var got []string
			for e, err := range s.List(ctx, Key{"saved", "company"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				got = append(got, string(e.Value))
			}
			if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
				t.Fatalf("List companies = %v, want [c1 c2]", got)
			}
		})
	}
}

func TestListPrefixDoesNotMatchSiblings(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(ctx, Key{"saved", "job", "1"}, []byte("yes"))
			s.Set(ctx, Key{"saved", "jobs-cache", "1"}, []byte("no"))

			for e, err := range s.List(ctx, Key{"saved", "job"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				if string(e.Value) != "yes" {
					t.Fatalf("prefix matched sibling entry %v", e.Key)
				}
			}
		})
	}
}

func TestListEarlyStop(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"a", "b", "c"} {
				s.Set(ctx, Key{"x", id}, []byte(id))
			}
			n := 0
			for range s.List(ctx, Key{"x"}) {
				n++
				break
			}
			if n != 1 {
				t.Fatalf("yielded %d entries after break, want 1", n)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	if got := (Key{"saved", "company", "x"}).String(); got != "saved:company:x" {
		t.Fatalf("Key.String = %q", got)
	}
}
