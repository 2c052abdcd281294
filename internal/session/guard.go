package session

import (
	"strings"
	"time"

	"github.com/fjod/shopease/internal/domain"
)

var defaultPublicRoutes = []string{
	"/",
	"/ad/login",
	"/login",
	"/register",
	"/forgot-password",
	"/products",
	"/help",
	"/contact",
	"/shipping",
	"/returns",
	"/privacy",
	"/terms",
	"/cookies",
	"/traveller-registration",
	"/cart",
}

type Decision struct {
	Allowed bool
	// Redirect is set when the request is not allowed.
	Redirect string
	// ClearSession asks the caller to drop the stored credentials.
	ClearSession bool
	Claims       *Claims
}

// Guard applies the storefront's route policy to a path.
type Guard struct {
	public map[string]struct{}
}

func NewGuard(extraPublic ...string) *Guard {
	g := &Guard{public: make(map[string]struct{})}
	for _, p := range append(defaultPublicRoutes, extraPublic...) {
		g.public[p] = struct{}{}
	}
	return g
}

func (g *Guard) Authorize(path string, creds Credentials, now time.Time) Decision {
	if _, ok := g.public[path]; ok || strings.HasPrefix(path, "/products/") {
		return Decision{Allowed: true}
	}

	admin := strings.HasPrefix(path, "/admin")
	login := LoginPath
	if admin {
		login = AdminLoginPath
	}

	if creds.AccessToken == "" {
		return Decision{Redirect: login}
	}
	claims, err := ParseClaims(creds.AccessToken)
	if err != nil {
		return Decision{Redirect: login}
	}

	if claims.Expired(now) && creds.RefreshToken == "" {
		return Decision{Redirect: login, ClearSession: true}
	}

	switch {
	case admin && claims.Role != domain.RoleAdmin:
		return Decision{Redirect: NotAuthorizedPath, Claims: &claims}
	case strings.HasPrefix(path, "/profile") && claims.Role != domain.RoleCustomer:
		return Decision{Redirect: NotAuthorizedPath, Claims: &claims}
	}
	return Decision{Allowed: true, Claims: &claims}
}
