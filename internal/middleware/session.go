package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/navigation"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/session"
)

// SessionCookie names the cookie holding the session id.
const SessionCookie = "agrilink_session"

type sessionKey struct{}

// SessionFrom returns the session attached by Session, if any.
func SessionFrom(ctx context.Context) (session.Record, bool) {
	rec, ok := ctx.Value(sessionKey{}).(session.Record)
	return rec, ok
}

// WithSession attaches rec to ctx.
func WithSession(ctx context.Context, rec session.Record) context.Context {
	return context.WithValue(ctx, sessionKey{}, rec)
}

// Session resolves the session cookie, when present, and attaches the session to the request context.
// Requests without a valid session pass through anonymously.
func Session(resolver *session.Resolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			rec, err := resolver.Current(r.Context(), cookie.Value)
			switch {
			case err == nil:
				r = r.WithContext(WithSession(r.Context(), rec))
			case errors.Is(err, remote.ErrNoSession):
			default:
				log.Warn("session lookup failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits only sessions whose actor carries role.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := SessionFrom(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required",
					models.Alert("Authentication Required", "Please log in to continue."))
				return
			}
			actorRole := rec.Actor.Role()
			if actorRole != role || !navigation.Permitted(actorRole, "/"+string(role)) {
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
