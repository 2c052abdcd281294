package session

import (
	"errors"
	"sync"

	"github.com/fjod/shopease/internal/domain"
)

const (
	LoginPath         = "/login"
	AdminLoginPath    = "/ad/login"
	NotAuthorizedPath = "/not-authorized"
)

var ErrSessionExpired = errors.New("session expired")

// ExpiredError is returned once a session cannot be recovered. Redirect is
// the login view the user should be sent to.
type ExpiredError struct {
	Redirect string
	Cause    error
}

func (e *ExpiredError) Error() string {
	if e.Cause != nil {
		return "session expired: " + e.Cause.Error()
	}
	return "session expired"
}

func (e *ExpiredError) Is(target error) bool { return target == ErrSessionExpired }

func (e *ExpiredError) Unwrap() error { return e.Cause }

type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Role         domain.Role
}

func (c Credentials) Authenticated() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// Store holds the credentials of one client. Implementations are scoped to
// a single request or connection.
type Store interface {
	Load() Credentials
	Save(Credentials)
	Clear()
}

type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

func NewMemoryStore(c Credentials) *MemoryStore {
	return &MemoryStore{creds: c}
}

func (s *MemoryStore) Load() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *MemoryStore) Save(c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
}
