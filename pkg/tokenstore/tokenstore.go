// Package tokenstore owns the persisted bearer token. Every other
// component reads the token through Get and never caches it beyond a
// single synchronous read.
package tokenstore

import (
	"context"
	"errors"

	"github.com/sanlucas/hospital/pkg/kvstore"
	"github.com/sanlucas/hospital/pkg/watchx"
)

// storageKey is the fixed key the token lives under. It must stay
// distinct from every other kvstore key in the client.
const storageKey = "hospital_token"

// Store wraps the persisted storage for the bearer token and publishes a
// change notification whenever the token is set or removed, so consumers
// don't need to poll storage to notice a login or logout.
type Store struct {
	kv      kvstore.Store
	changes *watchx.Value[string]
}

// New creates a token store over the given persistence facility.
func New(kv kvstore.Store) *Store {
	return &Store{
		kv:      kv,
		changes: watchx.NewValue(""),
	}
}

// Get returns the stored token, or "" when no token is stored. Storage
// failures are propagated as-is.
func (s *Store) Get(ctx context.Context) (string, error) {
	token, err := s.kv.Get(ctx, storageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Set stores the token and notifies subscribers. The token is stored as
// given; no shape validation happens here.
func (s *Store) Set(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, storageKey, token); err != nil {
		return err
	}
	s.changes.Set(token)
	return nil
}

// Remove deletes the stored token and notifies subscribers.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storageKey); err != nil {
		return err
	}
	s.changes.Set("")
	return nil
}

// Changes returns a subscription that fires with the new token value
// ("" on removal) after every Set or Remove. Subscribers still read the
// authoritative value through Get.
func (s *Store) Changes() (<-chan string, func()) {
	return s.changes.Subscribe()
}
