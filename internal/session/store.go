package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
)

// Store is the non-throwing JSON layer over a Backend.
// Failures are logged; Get degrades to "absent" and writes degrade to no-ops.
type Store struct {
	backend Backend
	log     zerolog.Logger
}

// NewStore creates a store over the given backend
func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		log:     logger.With().Str("component", "session_store").Logger(),
	}
}

// Save serializes value and persists it under key
func (s *Store) Save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to encode value")
		return
	}
	if err := s.backend.SetItem(ctx, key, string(data)); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to save value")
	}
}

// Get decodes the value under key into dst and reports whether it was found
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	raw, err := s.backend.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNoItem) {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to read value")
		}
		return false
	}
	if raw == "null" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to decode value")
		return false
	}
	return true
}

// Merge deep-merges the JSON object patch into the object stored under key.
// A missing or non-object value is replaced by patch.
func (s *Store) Merge(ctx context.Context, key string, patch any) {
	patchData, err := json.Marshal(patch)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to encode merge patch")
		return
	}
	var patchObj map[string]any
	if err := json.Unmarshal(patchData, &patchObj); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Merge patch is not an object")
		return
	}

	var current map[string]any
	if raw, err := s.backend.GetItem(ctx, key); err == nil {
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			current = nil
		}
	} else if !errors.Is(err, ErrNoItem) {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to read value for merge")
		return
	}

	s.Save(ctx, key, mergeObjects(current, patchObj))
}

// Remove erases key
func (s *Store) Remove(ctx context.Context, key string) {
	if err := s.backend.RemoveItem(ctx, key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to remove value")
	}
}

// Clear erases every key
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear storage")
	}
}

func mergeObjects(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcObj, srcIsObj := v.(map[string]any)
		dstObj, dstIsObj := dst[k].(map[string]any)
		if srcIsObj && dstIsObj {
			dst[k] = mergeObjects(dstObj, srcObj)
			continue
		}
		dst[k] = v
	}
	return dst
}
