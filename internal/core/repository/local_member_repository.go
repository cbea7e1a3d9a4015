package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/core/util"
	"coolmember/internal/localstore"
)

// errForeignOwner marks a record that exists but belongs to someone else.
var errForeignOwner = errors.New("record owned by another user")

// LocalMemberRepository keeps members in a localstore collection. Records
// keep their ownerId because the store has no server-side filtering.
type LocalMemberRepository struct {
	store *localstore.Store
	now   Clock
	newID func() string
}

// LocalOption customises a LocalMemberRepository.
type LocalOption func(*LocalMemberRepository)

// WithLocalClock overrides the time source used for timestamps.
func WithLocalClock(c Clock) LocalOption {
	return func(r *LocalMemberRepository) { r.now = c }
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(gen func() string) LocalOption {
	return func(r *LocalMemberRepository) { r.newID = gen }
}

func NewLocalMemberRepository(store *localstore.Store, opts ...LocalOption) *LocalMemberRepository {
	r := &LocalMemberRepository{
		store: store,
		now:   time.Now,
		newID: util.GenerateID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *LocalMemberRepository) List(ctx context.Context, ownerID string) ([]model.Member, error) {
	coll := r.store.Collection(ctx, MembersCollection)

	members := make([]model.Member, 0, len(coll))
	for _, id := range coll.IDs() {
		var stored model.StoredMember
		if err := json.Unmarshal(coll[id], &stored); err != nil {
			continue
		}
		if stored.OwnerID != ownerID {
			continue
		}
		stored.ID = id
		members = append(members, stored.Member)
	}
	SortNewestFirst(members)
	return members, nil
}

func (r *LocalMemberRepository) Get(ctx context.Context, ownerID, id string) (*model.Member, error) {
	doc, err := r.store.Get(ctx, MembersCollection, id)
	if errors.Is(err, localstore.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	stored, err := decodeOwned(doc, ownerID)
	if err != nil {
		return nil, translateLocal(err, id)
	}
	stored.ID = id
	return &stored.Member, nil
}

func (r *LocalMemberRepository) Create(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error) {
	id := r.newID()
	member := model.NewMember(id, fields, r.now().UnixMilli())

	doc, err := json.Marshal(model.StoredMember{Member: *member, OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("encode member: %w", err)
	}
	if err := r.store.Put(ctx, MembersCollection, id, doc); err != nil {
		return nil, err
	}
	return member, nil
}

func (r *LocalMemberRepository) Update(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error) {
	var updated model.Member
	_, err := r.store.Update(ctx, MembersCollection, id, func(doc json.RawMessage) (json.RawMessage, error) {
		stored, err := decodeOwned(doc, ownerID)
		if err != nil {
			return nil, err
		}
		stored.ID = id
		stored.Apply(patch)

		// updatedAt moves forward even when two writes share a millisecond
		ts := r.now().UnixMilli()
		if ts <= stored.UpdatedAt {
			ts = stored.UpdatedAt + 1
		}
		stored.UpdatedAt = ts

		updated = stored.Member
		return json.Marshal(stored)
	})
	if err != nil {
		return nil, translateLocal(err, id)
	}
	return &updated, nil
}

func (r *LocalMemberRepository) Delete(ctx context.Context, ownerID, id string) error {
	err := r.store.DeleteIf(ctx, MembersCollection, id, func(doc json.RawMessage) error {
		_, err := decodeOwned(doc, ownerID)
		return err
	})
	if err != nil {
		return translateLocal(err, id)
	}
	return nil
}

func decodeOwned(doc json.RawMessage, ownerID string) (model.StoredMember, error) {
	var stored model.StoredMember
	if err := json.Unmarshal(doc, &stored); err != nil {
		return stored, fmt.Errorf("decode member: %w", err)
	}
	if stored.OwnerID != ownerID {
		return stored, errForeignOwner
	}
	return stored, nil
}

func translateLocal(err error, id string) error {
	if errors.Is(err, localstore.ErrRecordNotFound) || errors.Is(err, errForeignOwner) {
		return notFound(id)
	}
	return err
}
