package service

import (
	"context"
	"strings"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/core/repository"
	"coolmember/internal/core/stats"
)

type MemberService interface {
	ListMembers(ctx context.Context, ownerID string) ([]model.Member, error)
	SearchMembers(ctx context.Context, ownerID, query string) ([]model.Member, error)
	GetMember(ctx context.Context, ownerID, id string) (*model.Member, error)
	AddMember(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error)
	UpdateMember(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error)
	DeleteMember(ctx context.Context, ownerID, id string) error
	Dashboard(ctx context.Context, ownerID string, opts stats.SummaryOptions) (*stats.Summary, error)
	ActiveBackend() repository.Backend
}

// backendReporter is satisfied by repositories that track which backend
// served the last call.
type backendReporter interface {
	Active() repository.Backend
}

type memberService struct {
	memberRepo repository.MemberRepository
	now        func() time.Time
}

func NewMemberService(memberRepo repository.MemberRepository) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		now:        time.Now,
	}
}

func invalidOwner() error {
	return &model.ValidationError{Field: "ownerId", Message: "is required"}
}

func invalidID() error {
	return &model.ValidationError{Field: "id", Message: "is required"}
}

func (s *memberService) ListMembers(ctx context.Context, ownerID string) ([]model.Member, error) {
	if ownerID == "" {
		return nil, invalidOwner()
	}
	return s.memberRepo.List(ctx, ownerID)
}

// SearchMembers filters the roster to names containing query, ignoring case.
// An empty query returns the whole roster.
func (s *memberService) SearchMembers(ctx context.Context, ownerID, query string) ([]model.Member, error) {
	members, err := s.ListMembers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return members, nil
	}

	matches := make([]model.Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), query) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *memberService) GetMember(ctx context.Context, ownerID, id string) (*model.Member, error) {
	if ownerID == "" {
		return nil, invalidOwner()
	}
	if id == "" {
		return nil, invalidID()
	}
	return s.memberRepo.Get(ctx, ownerID, id)
}

func (s *memberService) AddMember(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error) {
	if ownerID == "" {
		return nil, invalidOwner()
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return s.memberRepo.Create(ctx, ownerID, fields)
}

func (s *memberService) UpdateMember(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error) {
	if ownerID == "" {
		return nil, invalidOwner()
	}
	if id == "" {
		return nil, invalidID()
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.memberRepo.Update(ctx, ownerID, id, patch)
}

func (s *memberService) DeleteMember(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return invalidOwner()
	}
	if id == "" {
		return invalidID()
	}
	return s.memberRepo.Delete(ctx, ownerID, id)
}

func (s *memberService) Dashboard(ctx context.Context, ownerID string, opts stats.SummaryOptions) (*stats.Summary, error) {
	members, err := s.ListMembers(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary := stats.Summarize(members, s.now(), opts)
	return &summary, nil
}

// ActiveBackend reports the backend that served the latest repository call.
// Repositories that do not track it are assumed to be remote.
func (s *memberService) ActiveBackend() repository.Backend {
	if r, ok := s.memberRepo.(backendReporter); ok {
		return r.Active()
	}
	return repository.BackendRemote
}
