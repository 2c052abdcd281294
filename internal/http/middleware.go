package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/shopease/internal/session"
	"github.com/fjod/shopease/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type ctxKey int

const (
	storeKey ctxKey = iota
	guestKey
)

// RequestIDMiddleware reuses an inbound X-Request-ID or mints one, and makes
// it visible to the logger and to backend calls.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLog writes one line per request.
func AccessLog(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.FromContext(r.Context(), base).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// SessionMiddleware attaches the cookie-backed session and a guest id. The
// guest id owns the cart and wishlist until the visitor signs in.
func SessionMiddleware(secure bool, owners *session.OwnerSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guest := cookieValue(r, cookieGuest)
			if guest == "" {
				guest = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieGuest,
					Value:    guest,
					Path:     "/",
					MaxAge:   int(guestTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), storeKey, session.Store(newCookieStore(w, r, secure, owners)))
			ctx = context.WithValue(ctx, guestKey, guest)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePage applies the page guard for page to every route it wraps.
// API callers get 401 or 403 with the page they would be sent to.
func RequirePage(g *session.Guard, page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := sessionStore(r.Context())
			d := g.Authorize(page, store.Load(), time.Now())
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if d.ClearSession {
				store.Clear()
			}

			status, code, msg := http.StatusUnauthorized, "unauthorized", "Please sign in"
			if d.Redirect == session.NotAuthorizedPath {
				status, code, msg = http.StatusForbidden, "forbidden", "You are not allowed to view this page"
			}
			respondJSON(w, status, ErrorResponse{Error: msg, Code: code, Redirect: d.Redirect})
		})
	}
}

func sessionStore(ctx context.Context) session.Store {
	if s, ok := ctx.Value(storeKey).(session.Store); ok {
		return s
	}
	return session.NewMemoryStore(session.Credentials{})
}

// guestPrefix keeps guest owners apart from backend user ids, so a chosen
// sid value can never name a user's collections.
const guestPrefix = "guest:"

func guestID(ctx context.Context) string {
	if id, ok := ctx.Value(guestKey).(string); ok && id != "" {
		return guestPrefix + id
	}
	return ""
}

// ownerID is the signed-in user when there is one, otherwise the guest id.
// The user id is only set from a verified owner cookie.
func ownerID(ctx context.Context) string {
	if id := sessionStore(ctx).Load().UserID; id != "" {
		return id
	}
	return guestID(ctx)
}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && n > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
