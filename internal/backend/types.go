package backend

import (
	"io"

	"github.com/fjod/shopease/internal/domain"
	"github.com/shopspring/decimal"
)

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInResult struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	Role         domain.Role `json:"role"`
	ID           string      `json:"id"`
}

type SignUpRequest struct {
	FullName    string `json:"fullName" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,numeric,len=11"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type UpdateUserRequest struct {
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type ContactRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Message  string `json:"message" validate:"required"`
}

// Upload is a file forwarded as a multipart part.
type Upload struct {
	Filename string
	Content  io.Reader
}

type CategoryInput struct {
	Name        string `validate:"required"`
	Description string
	Logo        *Upload
}

type ProductInput struct {
	Name        string          `validate:"required"`
	Slug        string
	Price       decimal.Decimal
	Stock       int             `validate:"gte=0"`
	Category    string          `validate:"required"`
	Description string
	Features    []string
	Colors      []string
	Images      []Upload
}

// CreateOrderResult covers both payment flows: cod returns the created
// order id, hosted payment returns the gateway page in PaymentURL.
type CreateOrderResult struct {
	ID         string `json:"_id"`
	PaymentURL string `json:"paymentUrl"`
}

// savedAddress is the wire shape of /shipping-addresses and userInfo
// addresses, which name phone and street differently from orders.
type savedAddress struct {
	ID            string `json:"_id,omitempty"`
	UserID        string `json:"userId,omitempty"`
	FullName      string `json:"fullName"`
	PhoneNumber   string `json:"phoneNumber"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"isDefault"`
}

func toSavedAddress(userID string, a domain.ShippingAddress) savedAddress {
	return savedAddress{
		UserID:        userID,
		FullName:      a.FullName,
		PhoneNumber:   a.Phone,
		StreetAddress: a.Street,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		IsDefault:     a.IsDefault,
	}
}

func (s savedAddress) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		ID:         s.ID,
		FullName:   s.FullName,
		Phone:      s.PhoneNumber,
		Street:     s.StreetAddress,
		City:       s.City,
		State:      s.State,
		PostalCode: s.PostalCode,
		Country:    s.Country,
		IsDefault:  s.IsDefault,
	}
}

type userInfoWire struct {
	domain.UserInfo
	ShippingAddresses []savedAddress `json:"shippingAddresses,omitempty"`
}
