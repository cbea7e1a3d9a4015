package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"coolmember/internal/api/util"

	"github.com/google/uuid"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type AuthHandler struct {
	accessSecret  string
	refreshSecret string
	now           func() time.Time
}

func NewAuthHandler(accessSecret, refreshSecret string) *AuthHandler {
	return &AuthHandler{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		now:           time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	OwnerID      string `json:"owner_id"`
}

// OwnerIDForEmail derives a stable owner id from an email address.
func OwnerIDForEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

// TestLogin issues tokens for any email without checking the password. It is
// only routed when test login is enabled.
func (h *AuthHandler) TestLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		util.WriteErrorMessage(w, http.StatusBadRequest, "email is required")
		return
	}

	ownerID := OwnerIDForEmail(req.Email)
	now := h.now()

	accessToken, err := util.IssueToken(ownerID, req.Email, accessTokenTTL, h.accessSecret, now)
	if err != nil {
		util.WriteErrorMessage(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	refreshToken, err := util.IssueToken(ownerID, req.Email, refreshTokenTTL, h.refreshSecret, now)
	if err != nil {
		util.WriteErrorMessage(w, http.StatusInternalServerError, "Error generating refresh token")
		return
	}

	util.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		OwnerID:      ownerID,
	})
}
