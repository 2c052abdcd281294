package backend

import (
	"context"
	"net/http"

	"github.com/fjod/shopease/internal/domain"
)

func (c *Client) SignIn(ctx context.Context, in SignInRequest) (SignInResult, error) {
	var out SignInResult
	_, err := c.do(ctx, call{method: http.MethodPost, path: "auth/signin", body: in}, &out)
	return out, err
}

func (c *Client) SignUp(ctx context.Context, in SignUpRequest) error {
	_, err := c.do(ctx, call{method: http.MethodPost, path: "auth/signup", body: in}, nil)
	return err
}

// RefreshToken trades the refresh cookie for a new access token. The backend
// may or may not rotate the refresh token; an empty one means keep the old.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	_, err := c.do(ctx, call{
		method:       http.MethodPost,
		path:         "auth/refresh-token",
		refreshToken: refreshToken,
	}, &out)
	return out, err
}

func (c *Client) GetUserInfo(ctx context.Context, token, userID string) (domain.UserInfo, error) {
	var wire userInfoWire
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "auth/userInfo/" + userID, token: token}, &wire); err != nil {
		return domain.UserInfo{}, err
	}

	info := wire.UserInfo
	info.ShippingAddresses = make([]domain.ShippingAddress, 0, len(wire.ShippingAddresses))
	for _, a := range wire.ShippingAddresses {
		info.ShippingAddresses = append(info.ShippingAddresses, a.toDomain())
	}
	return info, nil
}

func (c *Client) UpdateUserInfo(ctx context.Context, token, userID string, in UpdateUserRequest) (domain.UserInfo, error) {
	var out domain.UserInfo
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   "auth/update-userInfo/" + userID,
		token:  token,
		body:   in,
	}, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, token, userID string, in ChangePasswordRequest) error {
	body := struct {
		ChangePasswordRequest
		ConfirmPassword string `json:"confirmPassword"`
	}{in, in.NewPassword}
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   "auth/change-password/" + userID,
		token:  token,
		body:   body,
	}, nil)
	return err
}

// ListUsers is admin only.
func (c *Client) ListUsers(ctx context.Context, token string, q ListQuery) ([]domain.UserInfo, domain.PageMeta, error) {
	var out []domain.UserInfo
	meta, err := c.do(ctx, call{method: http.MethodGet, path: "auth/users", query: q.Values(), token: token}, &out)
	return out, metaOrEmpty(meta), err
}

func metaOrEmpty(m *domain.PageMeta) domain.PageMeta {
	if m == nil {
		return domain.PageMeta{}
	}
	return *m
}
