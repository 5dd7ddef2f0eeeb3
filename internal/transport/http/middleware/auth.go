package httpmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mindconnect/chat-service/internal/domain"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// UserDirectory resolves the pre-validated identity. Token contents
// are the gateway's concern; we only require their presence.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// IdentityMiddleware requires Bearer + X-User-ID and resolves the user
// through the identity collaborator.
func IdentityMiddleware(users UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				http.Error(w, `{"error":"missing X-User-ID"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.Get(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					http.Error(w, `{"error":"unknown user"}`, http.StatusUnauthorized)
					return
				}
				http.Error(w, `{"error":"identity lookup failed"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, *user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromCtx(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}
