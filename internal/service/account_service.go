package service

import (
	"context"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FullName        string `json:"fullName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber" validate:"omitempty,numeric,len=11"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type ProfileUpdate struct {
	FullName    string `json:"fullName" validate:"omitempty,min=2"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,numeric,len=11"`
	Address     string `json:"address"`
}

type UserPage struct {
	Users      []domain.UserInfo `json:"users"`
	Meta       domain.PageMeta   `json:"meta"`
	TotalPages int               `json:"total_pages"`
}

type AccountService struct {
	backend AccountBackend
	auth    Authenticator
	cart    *CartService
	logger  *zap.Logger
}

func NewAccountService(b AccountBackend, auth Authenticator, cart *CartService, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{backend: b, auth: auth, cart: cart, logger: log}
}

// Login signs in, stores the session and folds the guest cart of
// guestOwner into the user's cart.
func (s *AccountService) Login(ctx context.Context, store session.Store, guestOwner string, req LoginRequest) (session.Credentials, error) {
	if err := validateStruct(req); err != nil {
		return session.Credentials{}, err
	}

	res, err := s.backend.SignIn(ctx, backend.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return session.Credentials{}, err
	}

	creds := session.Credentials{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UserID:       res.ID,
		Role:         res.Role,
	}
	store.Save(creds)

	if s.cart != nil && res.ID != "" {
		if err := s.cart.Merge(ctx, guestOwner, res.ID); err != nil {
			s.logger.Warn("guest cart merge failed", zap.String("user_id", res.ID), zap.Error(err))
		}
	}
	return creds, nil
}

func (s *AccountService) Logout(store session.Store) {
	store.Clear()
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	return s.backend.SignUp(ctx, backend.SignUpRequest{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
}

func (s *AccountService) Profile(ctx context.Context, store session.Store) (domain.UserInfo, error) {
	id, err := userID(store)
	if err != nil {
		return domain.UserInfo{}, err
	}
	var info domain.UserInfo
	err = s.auth.Do(ctx, store, func(token string) error {
		var err error
		info, err = s.backend.GetUserInfo(ctx, token, id)
		return err
	})
	return info, err
}

func (s *AccountService) UpdateProfile(ctx context.Context, store session.Store, upd ProfileUpdate) (domain.UserInfo, error) {
	if err := validateStruct(upd); err != nil {
		return domain.UserInfo{}, err
	}
	id, err := userID(store)
	if err != nil {
		return domain.UserInfo{}, err
	}
	var info domain.UserInfo
	err = s.auth.Do(ctx, store, func(token string) error {
		var err error
		info, err = s.backend.UpdateUserInfo(ctx, token, id, backend.UpdateUserRequest(upd))
		return err
	})
	return info, err
}

func (s *AccountService) ChangePassword(ctx context.Context, store session.Store, req ChangePasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	id, err := userID(store)
	if err != nil {
		return err
	}
	return s.auth.Do(ctx, store, func(token string) error {
		return s.backend.ChangePassword(ctx, token, id, backend.ChangePasswordRequest{
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		})
	})
}

// ListUsers is the admin user directory.
func (s *AccountService) ListUsers(ctx context.Context, store session.Store, q backend.ListQuery) (UserPage, error) {
	var page UserPage
	err := s.auth.Do(ctx, store, func(token string) error {
		users, meta, err := s.backend.ListUsers(ctx, token, q)
		if err != nil {
			return err
		}
		page = UserPage{Users: users, Meta: meta, TotalPages: meta.TotalPages()}
		return nil
	})
	if page.Users == nil {
		page.Users = []domain.UserInfo{}
	}
	return page, err
}

// UserByID fetches any user's profile; admin only upstream.
func (s *AccountService) UserByID(ctx context.Context, store session.Store, id string) (domain.UserInfo, error) {
	var info domain.UserInfo
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		info, err = s.backend.GetUserInfo(ctx, token, id)
		return err
	})
	return info, err
}

// UpdateUser lets an admin edit another user's profile.
func (s *AccountService) UpdateUser(ctx context.Context, store session.Store, id string, upd ProfileUpdate) (domain.UserInfo, error) {
	if err := validateStruct(upd); err != nil {
		return domain.UserInfo{}, err
	}
	var info domain.UserInfo
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		info, err = s.backend.UpdateUserInfo(ctx, token, id, backend.UpdateUserRequest(upd))
		return err
	})
	return info, err
}
