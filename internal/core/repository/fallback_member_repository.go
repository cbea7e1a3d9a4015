package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/metrics"

	"github.com/rs/zerolog"
)

// FallbackMode decides whether a remote failure affects later calls.
type FallbackMode string

const (
	// FallbackPerCall tries the remote store on every call.
	FallbackPerCall FallbackMode = "per-call"
	// FallbackSticky stays on the local store after a remote failure until
	// RetryAfter has elapsed, or until Reset when RetryAfter is zero.
	FallbackSticky FallbackMode = "sticky"
)

// ParseFallbackMode accepts "per-call" and "sticky" in any case.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch FallbackMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackPerCall:
		return FallbackPerCall, nil
	case FallbackSticky:
		return FallbackSticky, nil
	default:
		return "", fmt.Errorf("unknown fallback mode %q", s)
	}
}

// FallbackOptions configures a FallbackMemberRepository.
type FallbackOptions struct {
	Mode       FallbackMode
	RetryAfter time.Duration
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Clock      Clock
}

// FallbackMemberRepository tries the remote repository first and repeats the
// same operation against the local one when the remote call fails. Local
// failures are returned to the caller. It holds no member state.
type FallbackMemberRepository struct {
	remote     MemberRepository
	local      MemberRepository
	mode       FallbackMode
	retryAfter time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	now        Clock

	mu       sync.Mutex
	active   Backend
	failedAt time.Time
}

// NewFallbackMemberRepository composes remote and local. A nil remote
// serves every call from local.
func NewFallbackMemberRepository(remote, local MemberRepository, opts FallbackOptions) *FallbackMemberRepository {
	if opts.Mode == "" {
		opts.Mode = FallbackPerCall
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	r := &FallbackMemberRepository{
		remote:     remote,
		local:      local,
		mode:       opts.Mode,
		retryAfter: opts.RetryAfter,
		logger:     opts.Logger.With().Str("module", "repository").Logger(),
		metrics:    opts.Metrics,
		now:        opts.Clock,
		active:     BackendRemote,
	}
	if remote == nil {
		r.active = BackendLocal
	}
	return r
}

// Active reports the backend that served the most recent call.
func (r *FallbackMemberRepository) Active() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Mode returns the configured fallback mode.
func (r *FallbackMemberRepository) Mode() FallbackMode {
	return r.mode
}

// Reset makes the next call try the remote store again.
func (r *FallbackMemberRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedAt = time.Time{}
	if r.remote != nil {
		r.active = BackendRemote
	}
}

func (r *FallbackMemberRepository) List(ctx context.Context, ownerID string) ([]model.Member, error) {
	members, err := dispatch(ctx, r, "list",
		func(repo MemberRepository) ([]model.Member, error) { return repo.List(ctx, ownerID) })
	if err != nil {
		return nil, err
	}
	SortNewestFirst(members)
	return members, nil
}

func (r *FallbackMemberRepository) Get(ctx context.Context, ownerID, id string) (*model.Member, error) {
	return dispatch(ctx, r, "get",
		func(repo MemberRepository) (*model.Member, error) { return repo.Get(ctx, ownerID, id) })
}

func (r *FallbackMemberRepository) Create(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error) {
	return dispatch(ctx, r, "create",
		func(repo MemberRepository) (*model.Member, error) { return repo.Create(ctx, ownerID, fields) })
}

func (r *FallbackMemberRepository) Update(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error) {
	return dispatch(ctx, r, "update",
		func(repo MemberRepository) (*model.Member, error) { return repo.Update(ctx, ownerID, id, patch) })
}

func (r *FallbackMemberRepository) Delete(ctx context.Context, ownerID, id string) error {
	_, err := dispatch(ctx, r, "delete",
		func(repo MemberRepository) (struct{}, error) { return struct{}{}, repo.Delete(ctx, ownerID, id) })
	return err
}

func dispatch[T any](ctx context.Context, r *FallbackMemberRepository, op string, call func(MemberRepository) (T, error)) (T, error) {
	if r.shouldTryRemote() {
		v, err := call(r.remote)
		r.metrics.ObserveStoreOp(BackendRemote.String(), op, err)
		switch {
		case err == nil:
			r.setActive(BackendRemote)
			return v, nil
		case ctx.Err() != nil:
			// the caller gave up; that says nothing about the remote
			var zero T
			return zero, ctx.Err()
		case errors.Is(err, ErrNotFound):
			// records added during an outage only exist locally
			lv, lerr := call(r.local)
			r.metrics.ObserveStoreOp(BackendLocal.String(), op, lerr)
			if lerr != nil {
				r.setActive(BackendRemote)
				return lv, lerr
			}
			r.setActive(BackendLocal)
			return lv, nil
		}
		r.logger.Warn().Err(err).Str("operation", op).Msg("remote store failed, using local store")
		r.metrics.ObserveFallback(op)
		r.markRemoteFailed()
	}

	v, err := call(r.local)
	r.metrics.ObserveStoreOp(BackendLocal.String(), op, err)
	r.setActive(BackendLocal)
	return v, err
}

func (r *FallbackMemberRepository) shouldTryRemote() bool {
	if r.remote == nil {
		return false
	}
	if r.mode != FallbackSticky {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failedAt.IsZero() {
		return true
	}
	if r.retryAfter <= 0 {
		return false
	}
	return r.now().Sub(r.failedAt) >= r.retryAfter
}

func (r *FallbackMemberRepository) markRemoteFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedAt = r.now()
}

func (r *FallbackMemberRepository) setActive(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = b
	if b == BackendRemote {
		r.failedAt = time.Time{}
	}
}
