package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/gorilla/sessions"
)

const cookieKeyID = "sid"

type ctxKey int

const ctxKeyCookie ctxKey = iota

// withSession resolves the explorer session from the signed cookie, creating
// a new one when the cookie is missing, tampered with or expired. The cookie
// is re-issued on every request so its Max-Age slides with the store TTL.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A decode error still yields a fresh cookie session.
		cs, _ := s.cookies.Get(r, s.cfg.Session.CookieName)

		id, _ := cs.Values[cookieKeyID].(string)
		sess, err := s.sessions.Get(id)
		if err != nil {
			sess, err = s.sessions.Create()
			if err != nil {
				s.respondError(w, r, err, statusFor(err))
				return
			}
			cs.Values[cookieKeyID] = sess.ID
			logging.FromContext(r.Context()).Info("session started", "session_id", sess.ID)
		}
		if err := cs.Save(r, w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}

		ctx := core.ContextWithSession(r.Context(), sess)
		ctx = context.WithValue(ctx, ctxKeyCookie, cs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session returns the explorer session attached by withSession.
func session(r *http.Request) *core.Session {
	s, _ := core.SessionFromContext(r.Context())
	return s
}

func cookieSession(r *http.Request) *sessions.Session {
	cs, _ := r.Context().Value(ctxKeyCookie).(*sessions.Session)
	return cs
}

const flashErrors = "errors"

// addFlash queues messages for the next page render.
func addFlash(w http.ResponseWriter, r *http.Request, msgs ...string) {
	queueFlash(w, r, "", msgs)
}

// addFlashError queues err's user-facing text for the next page render.
func addFlashError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("form action failed", "path", r.URL.Path, "error", err)
	queueFlash(w, r, flashErrors, []string{errorText(err, core.MapError(err))})
}

func queueFlash(w http.ResponseWriter, r *http.Request, key string, msgs []string) {
	cs := cookieSession(r)
	if cs == nil {
		return
	}
	for _, m := range msgs {
		if key == "" {
			cs.AddFlash(m)
		} else {
			cs.AddFlash(m, key)
		}
	}
	if err := cs.Save(r, w); err != nil {
		logging.FromContext(r.Context()).Warn("flash not saved", "error", err)
	}
}

// popFlashes returns and clears the queued messages and errors.
func popFlashes(w http.ResponseWriter, r *http.Request) (msgs, errs []string) {
	cs := cookieSession(r)
	if cs == nil {
		return nil, nil
	}
	msgs = flashStrings(cs.Flashes())
	errs = flashStrings(cs.Flashes(flashErrors))
	if len(msgs) > 0 || len(errs) > 0 {
		_ = cs.Save(r, w)
	}
	return msgs, errs
}

func flashStrings(raw []any) []string {
	var out []string
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
