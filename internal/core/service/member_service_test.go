package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/core/repository"
	"coolmember/internal/core/stats"
	"coolmember/internal/localstore"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*memberService, *repository.FallbackMemberRepository) {
	t.Helper()
	store := localstore.NewStore(localstore.NewMemoryKV(), zerolog.Nop())
	local := repository.NewLocalMemberRepository(store)
	repo := repository.NewFallbackMemberRepository(nil, local, repository.FallbackOptions{Logger: zerolog.Nop()})
	return NewMemberService(repo).(*memberService), repo
}

func validFields(name, group string) model.MemberFields {
	return model.MemberFields{
		Name:        name,
		PhoneNumber: "555-0100",
		Address:     "1 Main Street",
		MemberID:    "M-1",
		BloodGroup:  group,
	}
}

func isValidation(err error) bool {
	var ve *model.ValidationError
	return errors.As(err, &ve)
}

func TestAddMemberValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		owner  string
		fields model.MemberFields
	}{
		{"missing owner", "", validFields("Ada", "A+")},
		{"missing name", "owner", validFields("  ", "A+")},
		{"unknown blood group", "owner", validFields("Ada", "C+")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMember(ctx, tt.owner, tt.fields)
			assert.True(t, isValidation(err), "got %v", err)
		})
	}

	members, err := svc.ListMembers(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, members, "rejected input is never persisted")
}

func TestMemberLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	added, err := svc.AddMember(ctx, "owner", validFields("Ada Lovelace", "AB-"))
	require.NoError(t, err)

	got, err := svc.GetMember(ctx, "owner", added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)

	updated, err := svc.UpdateMember(ctx, "owner", added.ID, model.MemberPatch{PhoneNumber: strPtr("555-0199")})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.PhoneNumber)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	require.NoError(t, svc.DeleteMember(ctx, "owner", added.ID))
	_, err = svc.GetMember(ctx, "owner", added.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateMemberRejectsBadPatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	added, err := svc.AddMember(ctx, "owner", validFields("Ada", "A+"))
	require.NoError(t, err)

	_, err = svc.UpdateMember(ctx, "owner", added.ID, model.MemberPatch{})
	assert.True(t, isValidation(err))

	_, err = svc.UpdateMember(ctx, "owner", added.ID, model.MemberPatch{BloodGroup: strPtr("X")})
	assert.True(t, isValidation(err))

	_, err = svc.UpdateMember(ctx, "owner", "", model.MemberPatch{Name: strPtr("x")})
	assert.True(t, isValidation(err))

	got, err := svc.GetMember(ctx, "owner", added.ID)
	require.NoError(t, err)
	assert.Equal(t, "A+", got.BloodGroup)
}

func TestDeleteAndGetRequireID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.True(t, isValidation(svc.DeleteMember(ctx, "owner", "")))
	_, err := svc.GetMember(ctx, "owner", "")
	assert.True(t, isValidation(err))
	_, err = svc.GetMember(ctx, "", "id")
	assert.True(t, isValidation(err))
}

func TestSearchMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Ada Lovelace", "Grace Hopper", "adam smith"} {
		_, err := svc.AddMember(ctx, "owner", validFields(name, "O+"))
		require.NoError(t, err)
	}

	matches, err := svc.SearchMembers(ctx, "owner", "ADA")
	require.NoError(t, err)
	var names []string
	for _, m := range matches {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Ada Lovelace", "adam smith"}, names)

	all, err := svc.SearchMembers(ctx, "owner", " ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDashboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	for _, group := range []string{"A+", "A+", "O-", "B+"} {
		_, err := svc.AddMember(ctx, "owner", validFields("m", group))
		require.NoError(t, err)
	}

	summary, err := svc.Dashboard(ctx, "owner", stats.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalMembers)
	assert.Equal(t, "A+", summary.MostCommonBloodGroup)
	assert.Equal(t, map[string]int{"A+": 2, "O-": 1, "B+": 1}, summary.BloodGroupDistribution.Map())
	assert.Len(t, summary.RecentMembers, 4)
	assert.Len(t, summary.MonthlyNewMembers, stats.DefaultMonthsBack)

	empty, err := svc.Dashboard(ctx, "someone-else", stats.SummaryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalMembers)
	assert.Equal(t, stats.NotAvailable, empty.MostCommonBloodGroup)
}

func TestActiveBackend(t *testing.T) {
	svc, repo := newTestService(t)
	assert.Equal(t, repo.Active(), svc.ActiveBackend())
	assert.Equal(t, repository.BackendLocal, svc.ActiveBackend())
}

func strPtr(s string) *string { return &s }
