package stats

import (
	"time"

	"coolmember/internal/core/model"
)

// SummaryOptions sizes the list-shaped parts of a Summary.
type SummaryOptions struct {
	RecentCount int
	MonthsBack  int
}

// Summary is everything the dashboard shows.
type Summary struct {
	TotalMembers           int            `json:"totalMembers"`
	NewMembersThisMonth    int            `json:"newMembersThisMonth"`
	MostCommonBloodGroup   string         `json:"mostCommonBloodGroup"`
	BloodGroupDistribution Distribution   `json:"bloodGroupDistribution"`
	RecentMembers          []model.Member `json:"recentMembers"`
	MonthlyNewMembers      []MonthCount   `json:"monthlyNewMembers"`
	LastUpdated            *int64         `json:"lastUpdated,omitempty"`
}

func Summarize(members []model.Member, now time.Time, opts SummaryOptions) Summary {
	s := Summary{
		TotalMembers:           TotalCount(members),
		NewMembersThisMonth:    NewThisMonth(members, now),
		MostCommonBloodGroup:   MostCommonGroup(members),
		BloodGroupDistribution: BloodGroupDistribution(members),
		RecentMembers:          RecentMembers(members, opts.RecentCount),
		MonthlyNewMembers:      MonthlyHistogram(members, now, opts.MonthsBack),
	}
	if s.BloodGroupDistribution == nil {
		s.BloodGroupDistribution = Distribution{}
	}
	if last, ok := LastUpdated(members); ok {
		s.LastUpdated = &last
	}
	return s
}
