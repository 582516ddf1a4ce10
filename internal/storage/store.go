// Package storage is the durable key-value persistence port behind the
// wizard state. A browser shell satisfies it with local storage; the Go
// targets here ship an in-memory store, an embedded Badger store, and a
// Postgres store. Corrupted-record recovery (parse-or-discard) is part of
// this package's contract, not the controller's.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("storage: record not found")

// Store persists opaque byte records under string keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// LoadJSON reads and decodes the record at key into out. A record that
// does not parse is discarded and reported as absent, so a corrupted
// state never reaches the caller.
func LoadJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("[storage] discarding corrupted record %q: %v", key, err)
		if clearErr := s.Clear(ctx, key); clearErr != nil {
			log.Printf("[storage] failed to clear corrupted record %q: %v", key, clearErr)
		}
		return false, nil
	}
	return true, nil
}

// SaveJSON encodes v and writes it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}
