package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// KeyPrefix is prepended to a collection name to form its durable key.
const KeyPrefix = "localDb_"

// ErrRecordNotFound is returned when a mutation targets an absent id.
var ErrRecordNotFound = errors.New("record not found")

// Collection maps record ids to their JSON documents.
type Collection map[string]json.RawMessage

// IDs returns the record ids in ascending order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store keeps one in-memory mirror per collection, hydrated lazily from the KV
// on first access and written back after every mutation.
type Store struct {
	mu          sync.Mutex
	kv          KV
	logger      zerolog.Logger
	collections map[string]Collection
}

func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:          kv,
		logger:      logger.With().Str("module", "localstore").Logger(),
		collections: make(map[string]Collection),
	}
}

// Collection returns a copy of the mirror for name.
func (s *Store) Collection(ctx context.Context, name string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collectionLocked(ctx, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("collection", name).Msg("durable entry unreadable, reading as empty")
	}
	out := make(Collection, len(c))
	for id, doc := range c {
		out[id] = doc
	}
	return out
}

// SaveCollection writes the mirror for name to durable storage.
func (s *Store) SaveCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.collectionLocked(ctx, name); err != nil {
		return err
	}
	return s.saveLocked(ctx, name)
}

// Get returns a single record.
func (s *Store) Get(ctx context.Context, name, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collectionLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, ErrRecordNotFound)
	}
	return doc, nil
}

// Put inserts or replaces a record and persists the collection.
func (s *Store) Put(ctx context.Context, name, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collectionLocked(ctx, name)
	if err != nil {
		return err
	}
	prev, existed := c[id]
	c[id] = doc
	if err := s.saveLocked(ctx, name); err != nil {
		if existed {
			c[id] = prev
		} else {
			delete(c, id)
		}
		return err
	}
	return nil
}

// Update replaces an existing record with the result of fn and persists the
// collection. The record is left untouched if fn or the write fails.
func (s *Store) Update(ctx context.Context, name, id string, fn func(json.RawMessage) (json.RawMessage, error)) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collectionLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	prev, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, ErrRecordNotFound)
	}
	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	c[id] = next
	if err := s.saveLocked(ctx, name); err != nil {
		c[id] = prev
		return nil, err
	}
	return next, nil
}

// Delete removes a record and persists the collection.
func (s *Store) Delete(ctx context.Context, name, id string) error {
	return s.DeleteIf(ctx, name, id, nil)
}

// DeleteIf removes a record when check accepts it. A nil check accepts every
// record; an error from check is returned and nothing is removed.
func (s *Store) DeleteIf(ctx context.Context, name, id string, check func(json.RawMessage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collectionLocked(ctx, name)
	if err != nil {
		return err
	}
	prev, ok := c[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", name, id, ErrRecordNotFound)
	}
	if check != nil {
		if err := check(prev); err != nil {
			return err
		}
	}
	delete(c, id)
	if err := s.saveLocked(ctx, name); err != nil {
		c[id] = prev
		return err
	}
	return nil
}

// collectionLocked returns the mirror for name, hydrating it on first use. A
// failed read is not cached: the caller gets an empty collection plus the error
// and the next access tries the KV again, so a mutation never overwrites an
// entry that could not be read.
func (s *Store) collectionLocked(ctx context.Context, name string) (Collection, error) {
	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := Collection{}
	data, err := s.kv.Get(ctx, KeyPrefix+name)
	switch {
	case errors.Is(err, ErrKeyNotFound):
	case err != nil:
		return Collection{}, fmt.Errorf("read collection %s: %w", name, err)
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			s.logger.Warn().Err(err).Str("collection", name).Msg("durable entry corrupt, starting empty")
			c = Collection{}
		}
		if c == nil {
			c = Collection{}
		}
	}
	s.collections[name] = c
	return c, nil
}

func (s *Store) saveLocked(ctx context.Context, name string) error {
	c, ok := s.collections[name]
	if !ok {
		c = Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, KeyPrefix+name, data); err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}
