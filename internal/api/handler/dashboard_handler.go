package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"coolmember/internal/api/util"
	"coolmember/internal/core/model"
	"coolmember/internal/core/service"
	"coolmember/internal/core/stats"
)

type DashboardHandler struct {
	memberService service.MemberService
}

func NewDashboardHandler(memberService service.MemberService) *DashboardHandler {
	return &DashboardHandler{
		memberService: memberService,
	}
}

type dashboardResponse struct {
	*stats.Summary
	Backend string `json:"backend"`
}

// GetDashboard returns the roster summary. The optional months and recent
// query parameters size the histogram and the recent list.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	var opts stats.SummaryOptions
	if opts.MonthsBack, err = intParam(r, "months", stats.MaxMonthsBack); err != nil {
		util.WriteError(w, err)
		return
	}
	if opts.RecentCount, err = intParam(r, "recent", stats.MaxRecentCount); err != nil {
		util.WriteError(w, err)
		return
	}

	summary, err := h.memberService.Dashboard(r.Context(), ownerID, opts)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, dashboardResponse{
		Summary: summary,
		Backend: h.memberService.ActiveBackend().String(),
	})
}

// intParam reads an optional query parameter in [0, max]. Zero means default.
func intParam(r *http.Request, name string, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > max {
		return 0, &model.ValidationError{Field: name, Message: fmt.Sprintf("must be an integer between 0 and %d", max)}
	}
	return n, nil
}
