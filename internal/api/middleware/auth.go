package middleware

import (
	"net/http"

	"coolmember/internal/api/util"
)

// AuthMiddleware verifies HS256 bearer tokens and stores the subject as the
// request's owner id.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := util.BearerToken(r)
		if err != nil {
			util.WriteError(w, err)
			return
		}

		claims, err := util.ParseToken(token, m.secret)
		if err != nil {
			util.WriteError(w, err)
			return
		}

		ctx := util.WithOwnerID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
