package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type UserInfo struct {
	ID                string            `json:"_id"`
	FullName          string            `json:"fullName"`
	Email             string            `json:"email"`
	PhoneNumber       string            `json:"phoneNumber,omitempty"`
	Address           string            `json:"address,omitempty"`
	Role              Role              `json:"role,omitempty"`
	ShippingAddresses []ShippingAddress `json:"shippingAddresses,omitempty"`
	CreatedAt         time.Time         `json:"createdAt,omitempty"`
}
