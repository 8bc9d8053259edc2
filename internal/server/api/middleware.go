package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/orgvault/orgvault/internal/common"
	"github.com/orgvault/orgvault/internal/server/auth"
	"github.com/orgvault/orgvault/internal/server/models"
)

type ctxKey int

const actorKey ctxKey = iota

const requestIDHeader = "X-Request-Id"

// actorFromContext returns the authenticated actor stored by authenticate.
func actorFromContext(ctx context.Context) (*models.ActorContext, bool) {
	actor, ok := ctx.Value(actorKey).(*models.ActorContext)
	return actor, ok
}

// requestID tags every request with an id so log lines from one call can
// be correlated. An incoming header wins, otherwise a fresh uuid is issued.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// authenticate extracts the bearer token, verifies it and places the
// resulting actor in the request context. Requests without a valid token
// are rejected before any handler runs.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, common.ErrInvalidToken)
			return
		}

		actor, err := auth.ParseActor(token, s.secretKey)
		if err != nil {
			writeError(w, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
