package core

import (
	"context"

	"github.com/JonMunkholm/csvexplorer/internal/logging"
)

type contextKey string

const ctxKeySession contextKey = "session"

// ContextWithSession attaches s to ctx and tags the context's logger with
// the session id.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	ctx = logging.WithSessionID(ctx, s.ID)
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(*Session)
	return s, ok && s != nil
}
