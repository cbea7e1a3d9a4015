package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/localstore"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failingRepo fails every call, standing in for an unreachable remote.
type failingRepo struct {
	err   error
	calls int
}

var errUnavailable = errors.New("remote unavailable")

func (f *failingRepo) fail() error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return errUnavailable
}

func (f *failingRepo) List(context.Context, string) ([]model.Member, error) { return nil, f.fail() }
func (f *failingRepo) Get(context.Context, string, string) (*model.Member, error) {
	return nil, f.fail()
}
func (f *failingRepo) Create(context.Context, string, model.MemberFields) (*model.Member, error) {
	return nil, f.fail()
}
func (f *failingRepo) Update(context.Context, string, string, model.MemberPatch) (*model.Member, error) {
	return nil, f.fail()
}
func (f *failingRepo) Delete(context.Context, string, string) error { return f.fail() }

func newLocalRepo(t *testing.T, clock Clock) (*LocalMemberRepository, *localstore.Store, *localstore.MemoryKV) {
	t.Helper()
	kv := localstore.NewMemoryKV()
	store := localstore.NewStore(kv, zerolog.Nop())
	seq := 0
	repo := NewLocalMemberRepository(store,
		WithLocalClock(clock),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("local-%04d", seq)
		}),
	)
	return repo, store, kv
}

func fields(name, group string) model.MemberFields {
	return model.MemberFields{
		Name:        name,
		PhoneNumber: "555-0100",
		Address:     "1 Main Street",
		MemberID:    "M-" + name,
		BloodGroup:  group,
	}
}

func strPtr(s string) *string { return &s }
