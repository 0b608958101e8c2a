package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// GuestSession assigns a cart session identifier to every request. An
// incoming X-Session-Id is reused when it parses as a UUID; otherwise a
// fresh one is minted and echoed back so the client can persist it.
func GuestSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(sessionIDHeader)
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}

			w.Header().Set(sessionIDHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
