package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"coolmember/internal/core/model"
)

// MembersCollection is the collection name used by both backends.
const MembersCollection = "members"

// ErrNotFound is returned when an update, delete or get targets an id that
// the serving backend does not hold for the owner.
var ErrNotFound = errors.New("not found")

// MemberRepository is implemented by the remote adapter, the local adapter and
// the fallback facade that composes them.
type MemberRepository interface {
	List(ctx context.Context, ownerID string) ([]model.Member, error)
	Get(ctx context.Context, ownerID, id string) (*model.Member, error)
	Create(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error)
	Update(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Backend identifies which store served a call.
type Backend int

const (
	BackendRemote Backend = iota
	BackendLocal
)

func (b Backend) String() string {
	switch b {
	case BackendRemote:
		return "remote"
	case BackendLocal:
		return "local"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// Clock returns the current time. Tests replace it to pin timestamps.
type Clock func() time.Time

func notFound(id string) error {
	return fmt.Errorf("member with ID %s not found: %w", id, ErrNotFound)
}

// SortNewestFirst orders members by createdAt descending, keeping the
// encounter order of equal timestamps.
func SortNewestFirst(members []model.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].CreatedAt > members[j].CreatedAt
	})
}
