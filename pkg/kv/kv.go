// Package kv is the local persistence layer: a small key-value store
// holding saved companies, saved jobs, and session defaults.
//
// Keys are hierarchical paths of string segments, e.g.
// Key{"saved", "company", "lead-3f2a"}, encoded with ':' between
// segments. The BadgerDB implementation backs normal runs; Memory backs
// tests.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: not found")

// separator joins key segments in the encoded form. Segments must not
// contain it.
const separator = ':'

// Key is a hierarchical path of string segments.
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string {
	return strings.Join(k, string(separator))
}

// Entry is one key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries strictly under prefix, in
	// lexicographic order of the encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases the store's resources.
	Close() error
}

// encode converts a Key to its stored byte form.
func encode(k Key) []byte {
	return []byte(k.String())
}

// decode converts a stored byte form back to a Key.
func decode(b []byte) Key {
	return Key(strings.Split(string(b), string(separator)))
}

// listPrefix returns the encoded prefix for List: the trailing separator
// keeps "a:b" from matching "a:bc". An empty prefix scans everything.
func listPrefix(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return append(encode(prefix), separator)
}
