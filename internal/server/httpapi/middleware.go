package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/auth"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// RequireAuth validates the bearer token and stores the authenticated user id
// in the request context. The token is read from the Authorization header, or
// from the access_token query parameter for clients that cannot set headers
// on a websocket upgrade.
func RequireAuth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required", "NOT_AUTHENTICATED")
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				if err == common.ErrTokenExpired {
					writeError(w, http.StatusUnauthorized, "Token expired", "TOKEN_EXPIRED")
					return
				}
				writeError(w, http.StatusUnauthorized, "Authentication required", "NOT_AUTHENTICATED")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok && rest != "" {
		return rest
	}
	return r.URL.Query().Get(common.AccessTokenHeaderName)
}

// UserIDFromContext returns the authenticated user id placed by RequireAuth.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}
