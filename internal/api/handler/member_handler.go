package handler

import (
	"encoding/json"
	"net/http"

	"coolmember/internal/api/util"
	"coolmember/internal/core/model"
	"coolmember/internal/core/service"
)

type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	var req model.MemberFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.memberService.AddMember(r.Context(), ownerID, req)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, member)
}

// GetMembers lists the caller's roster, filtered by name when q is set.
func (h *MemberHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	members, err := h.memberService.SearchMembers(r.Context(), ownerID, r.URL.Query().Get("q"))
	if err != nil {
		util.WriteError(w, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	util.WriteJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	member, err := h.memberService.GetMember(r.Context(), ownerID, r.URL.Query().Get("id"))
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	var patch model.MemberPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		util.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.memberService.UpdateMember(r.Context(), ownerID, r.URL.Query().Get("id"), patch)
	if err != nil {
		util.WriteError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := util.GetOwnerID(r)
	if err != nil {
		util.WriteError(w, err)
		return
	}

	if err := h.memberService.DeleteMember(r.Context(), ownerID, r.URL.Query().Get("id")); err != nil {
		util.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
