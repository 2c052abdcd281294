package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
)

const (
	cookieAccess  = "accessToken"
	cookieRefresh = "refreshToken"
	cookieUserID  = "id"
	cookieRole    = "role"
	cookieGuest   = "sid"
	cookieOwner   = "owner"

	accessTTL  = time.Hour
	refreshTTL = 7 * 24 * time.Hour
	guestTTL   = 30 * 24 * time.Hour
)

// cookieStore keeps one request's session in cookies. Writes go out as
// Set-Cookie headers, so they must happen before the response is written.
//
// UserID and Role come only from the signed owner cookie. The plain id and
// role cookies are written for the browser and never read back.
type cookieStore struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	secure bool
	owners *session.OwnerSigner
	creds  session.Credentials
}

func newCookieStore(w http.ResponseWriter, r *http.Request, secure bool, owners *session.OwnerSigner) *cookieStore {
	s := &cookieStore{
		w:      w,
		secure: secure,
		owners: owners,
		creds: session.Credentials{
			AccessToken:  cookieValue(r, cookieAccess),
			RefreshToken: cookieValue(r, cookieRefresh),
		},
	}
	if c, err := owners.Verify(cookieValue(r, cookieOwner)); err == nil {
		s.creds.UserID = c.Subject
		s.creds.Role = c.Role
	}
	return s
}

func (s *cookieStore) Load() session.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *cookieStore) Save(c session.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.AccessToken != s.creds.AccessToken {
		s.set(cookieAccess, c.AccessToken, accessTTL, true)
	}
	if c.RefreshToken != s.creds.RefreshToken {
		s.set(cookieRefresh, c.RefreshToken, refreshTTL, true)
	}
	if c.UserID != s.creds.UserID || c.Role != s.creds.Role {
		s.setOwner(c.UserID, c.Role)
	}
	s.creds = c
}

func (s *cookieStore) setOwner(userID string, role domain.Role) {
	s.set(cookieUserID, userID, refreshTTL, false)
	s.set(cookieRole, string(role), refreshTTL, false)
	if userID == "" {
		s.set(cookieOwner, "", 0, true)
		return
	}
	tok, err := s.owners.Sign(userID, role, time.Now())
	if err != nil {
		s.set(cookieOwner, "", 0, true)
		return
	}
	s.set(cookieOwner, tok, s.owners.TTL(), true)
}

func (s *cookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{cookieAccess, cookieRefresh, cookieUserID, cookieRole, cookieOwner} {
		http.SetCookie(s.w, &http.Cookie{
			Name:     name,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	s.creds = session.Credentials{}
}

func (s *cookieStore) set(name, value string, ttl time.Duration, httpOnly bool) {
	if value == "" {
		http.SetCookie(s.w, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
