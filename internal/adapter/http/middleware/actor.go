package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ActorHeader carries the id of the user acting on the ledger. Identity is
// established upstream; the ledger only scopes access by it.
const ActorHeader = "X-User-ID"

// ContextKey is the type for context keys
type ContextKey string

const (
	// ActorContextKey is the context key for the acting user id
	ActorContextKey ContextKey = "actor"
)

// Actor rejects requests without an actor id and stores the id in the
// request context.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actorID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing " + ActorHeader + " header"})
			return
		}

		ctx := WithActor(r.Context(), actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithActor returns a context carrying actorID.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorContextKey, actorID)
}

// ActorFromContext extracts the acting user id from context.
func ActorFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(ActorContextKey).(string)
	return actorID, ok && actorID != ""
}
