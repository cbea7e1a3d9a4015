// Package stats derives dashboard figures from a roster snapshot. Every
// function is pure: the same members and the same now give the same result.
package stats

import (
	"sort"
	"time"

	"coolmember/internal/core/model"
)

const (
	// NotAvailable is reported for the most common group of an empty roster.
	NotAvailable = "N/A"

	DefaultRecentCount = 5
	DefaultMonthsBack  = 6

	// Upper bounds for caller-chosen sizes.
	MaxRecentCount = 100
	MaxMonthsBack  = 120
)

// GroupCount is one entry of a blood group distribution.
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// Distribution holds group counts in the order each group was first seen.
type Distribution []GroupCount

// Map returns the distribution keyed by group.
func (d Distribution) Map() map[string]int {
	out := make(map[string]int, len(d))
	for _, gc := range d {
		out[gc.Group] = gc.Count
	}
	return out
}

// MonthCount is one histogram bucket.
type MonthCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func TotalCount(members []model.Member) int {
	return len(members)
}

// StartOfMonth returns midnight on the first day of now's month, in now's location.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// NewThisMonth counts members created between the start of now's month and now.
func NewThisMonth(members []model.Member, now time.Time) int {
	from := StartOfMonth(now).UnixMilli()
	to := now.UnixMilli()

	n := 0
	for _, m := range members {
		if m.CreatedAt >= from && m.CreatedAt <= to {
			n++
		}
	}
	return n
}

// BloodGroupDistribution counts members per blood group. Unknown codes are
// counted under their literal value.
func BloodGroupDistribution(members []model.Member) Distribution {
	index := make(map[string]int)
	var dist Distribution
	for _, m := range members {
		i, ok := index[m.BloodGroup]
		if !ok {
			i = len(dist)
			index[m.BloodGroup] = i
			dist = append(dist, GroupCount{Group: m.BloodGroup})
		}
		dist[i].Count++
	}
	return dist
}

// MostCommonGroup returns the group with the highest count. Ties go to the
// group seen first.
func MostCommonGroup(members []model.Member) string {
	dist := BloodGroupDistribution(members)
	if len(dist) == 0 {
		return NotAvailable
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Count > dist[j].Count
	})
	return dist[0].Group
}

// RecentMembers returns the n newest members. n <= 0 means DefaultRecentCount.
func RecentMembers(members []model.Member, n int) []model.Member {
	if n <= 0 {
		n = DefaultRecentCount
	}
	sorted := make([]model.Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// MonthlyHistogram counts members per calendar month for the monthsBack months
// ending with now's month, oldest first. Members outside the window are
// dropped. monthsBack <= 0 means DefaultMonthsBack; values above
// MaxMonthsBack are clamped.
func MonthlyHistogram(members []model.Member, now time.Time, monthsBack int) []MonthCount {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	if monthsBack > MaxMonthsBack {
		monthsBack = MaxMonthsBack
	}
	loc := now.Location()
	current := StartOfMonth(now)

	buckets := make([]MonthCount, monthsBack)
	index := make(map[[2]int]int, monthsBack)
	for i := 0; i < monthsBack; i++ {
		month := current.AddDate(0, i-(monthsBack-1), 0)
		buckets[i] = MonthCount{Label: month.Format("Jan 06")}
		index[[2]int{month.Year(), int(month.Month())}] = i
	}

	for _, m := range members {
		created := time.UnixMilli(m.CreatedAt).In(loc)
		if i, ok := index[[2]int{created.Year(), int(created.Month())}]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// LastUpdated returns the latest updatedAt, or false for an empty roster.
func LastUpdated(members []model.Member) (int64, bool) {
	if len(members) == 0 {
		return 0, false
	}
	latest := members[0].UpdatedAt
	for _, m := range members[1:] {
		if m.UpdatedAt > latest {
			latest = m.UpdatedAt
		}
	}
	return latest, true
}
