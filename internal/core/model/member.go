package model

import (
	"fmt"
	"strings"
)

// Blood group codes accepted on a roster entry.
const (
	BloodGroupAPos  = "A+"
	BloodGroupANeg  = "A-"
	BloodGroupBPos  = "B+"
	BloodGroupBNeg  = "B-"
	BloodGroupABPos = "AB+"
	BloodGroupABNeg = "AB-"
	BloodGroupOPos  = "O+"
	BloodGroupONeg  = "O-"
)

// BloodGroups lists the codes in the order the member form offers them.
var BloodGroups = []string{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// Member is one roster entry as returned to callers.
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	MemberID    string `json:"memberId"`
	BloodGroup  string `json:"bloodGroup"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// StoredMember is the persisted form of a Member. OwnerID is only used to scope
// queries and never leaves the repository layer.
type StoredMember struct {
	Member
	OwnerID string `json:"ownerId"`
}

// MemberFields holds everything a caller supplies when adding a member.
type MemberFields struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	MemberID    string `json:"memberId"`
	BloodGroup  string `json:"bloodGroup"`
}

// MemberPatch is a partial update. Nil fields are left unchanged.
type MemberPatch struct {
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Address     *string `json:"address,omitempty"`
	MemberID    *string `json:"memberId,omitempty"`
	BloodGroup  *string `json:"bloodGroup,omitempty"`
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidBloodGroup reports whether code is one of the eight accepted codes.
func IsValidBloodGroup(code string) bool {
	for _, g := range BloodGroups {
		if g == code {
			return true
		}
	}
	return false
}

// Validate checks that every field is present and the blood group is known.
func (f MemberFields) Validate() error {
	checks := []struct {
		field string
		value string
	}{
		{"name", f.Name},
		{"phoneNumber", f.PhoneNumber},
		{"address", f.Address},
		{"memberId", f.MemberID},
		{"bloodGroup", f.BloodGroup},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return &ValidationError{Field: c.field, Message: "is required"}
		}
	}
	if !IsValidBloodGroup(f.BloodGroup) {
		return &ValidationError{Field: "bloodGroup", Message: fmt.Sprintf("unrecognized blood group %q", f.BloodGroup)}
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p MemberPatch) IsEmpty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Address == nil && p.MemberID == nil && p.BloodGroup == nil
}

// Validate applies the MemberFields rules to the fields the patch sets.
func (p MemberPatch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Message: "update must set at least one field"}
	}
	for field, value := range p.Fields() {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "cannot be empty"}
		}
	}
	if p.BloodGroup != nil && !IsValidBloodGroup(*p.BloodGroup) {
		return &ValidationError{Field: "bloodGroup", Message: fmt.Sprintf("unrecognized blood group %q", *p.BloodGroup)}
	}
	return nil
}

// Fields returns the set fields keyed by their stored name.
func (p MemberPatch) Fields() map[string]string {
	out := make(map[string]string, 5)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.PhoneNumber != nil {
		out["phoneNumber"] = *p.PhoneNumber
	}
	if p.Address != nil {
		out["address"] = *p.Address
	}
	if p.MemberID != nil {
		out["memberId"] = *p.MemberID
	}
	if p.BloodGroup != nil {
		out["bloodGroup"] = *p.BloodGroup
	}
	return out
}

// NewMember builds a Member from caller fields with both timestamps set to nowMillis.
func NewMember(id string, fields MemberFields, nowMillis int64) *Member {
	return &Member{
		ID:          id,
		Name:        fields.Name,
		PhoneNumber: fields.PhoneNumber,
		Address:     fields.Address,
		MemberID:    fields.MemberID,
		BloodGroup:  fields.BloodGroup,
		CreatedAt:   nowMillis,
		UpdatedAt:   nowMillis,
	}
}

// Apply merges the patch over m. ID and CreatedAt are never touched.
func (m *Member) Apply(p MemberPatch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.PhoneNumber != nil {
		m.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
	if p.MemberID != nil {
		m.MemberID = *p.MemberID
	}
	if p.BloodGroup != nil {
		m.BloodGroup = *p.BloodGroup
	}
}
