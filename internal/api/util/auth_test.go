package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coolmember/internal/core/model"
	"coolmember/internal/core/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	token, err := IssueToken("owner-1", "a@b.c", time.Hour, "secret", now)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)

	_, err = ParseToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejects(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		token, err := IssueToken("owner-1", "", time.Minute, "secret", time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = ParseToken(token, "secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := IssueToken("", "", time.Hour, "secret", time.Now())
		require.NoError(t, err)
		_, err = ParseToken(token, "secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "owner-1"})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = ParseToken(signed, "secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"", "", ErrMissingToken},
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwnerIDContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetOwnerID(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r = r.WithContext(WithOwnerID(r.Context(), "owner-1"))
	got, err := GetOwnerID(r)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", got)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&model.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{fmt.Errorf("member with ID x not found: %w", repository.ErrNotFound), http.StatusNotFound},
		{ErrInvalidToken, http.StatusUnauthorized},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"disk full"}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}
