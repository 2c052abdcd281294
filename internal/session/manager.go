package session

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (backend.TokenPair, error)
}

// Manager runs authenticated backend calls and owns the refresh guard.
// Concurrent callers holding the same refresh token share a single refresh.
type Manager struct {
	refresher Refresher
	group     singleflight.Group
	timeout   time.Duration
	logger    *zap.Logger
}

func NewManager(r Refresher, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{refresher: r, timeout: 10 * time.Second, logger: log}
}

// Do calls fn with the stored access token. A 401 triggers one refresh and
// one retry; when either fails the store is cleared and an *ExpiredError returned.
func (m *Manager) Do(ctx context.Context, store Store, fn func(accessToken string) error) error {
	creds := store.Load()
	err := fn(creds.AccessToken)
	if !errors.Is(err, backend.ErrUnauthorized) {
		return err
	}

	log := logger.FromContext(ctx, m.logger).With(zap.String("user_id", creds.UserID))
	if creds.RefreshToken == "" {
		store.Clear()
		return &ExpiredError{Redirect: LoginPath, Cause: err}
	}

	refreshed, err := m.refresh(ctx, creds.RefreshToken)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		log.Info("token refresh failed, ending session", zap.Error(err))
		store.Clear()
		return &ExpiredError{Redirect: LoginPath, Cause: err}
	}

	creds.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		creds.RefreshToken = refreshed.RefreshToken
	}
	store.Save(creds)

	if err := fn(creds.AccessToken); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			log.Info("request still unauthorized after refresh, ending session")
			store.Clear()
			return &ExpiredError{Redirect: LoginPath, Cause: err}
		}
		return err
	}
	return nil
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (backend.TokenPair, error) {
	ch := m.group.DoChan(refreshToken, func() (any, error) {
		// detached so one caller giving up does not fail the others
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		return m.refresher.RefreshToken(rctx, refreshToken)
	})

	select {
	case <-ctx.Done():
		return backend.TokenPair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return backend.TokenPair{}, res.Err
		}
		return res.Val.(backend.TokenPair), nil
	}
}
