package domain

type ShippingAddress struct {
	ID         string `json:"_id,omitempty"`
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	IsDefault  bool   `json:"isDefault"`
}

// DefaultAddressIndex returns the index of the first address flagged default, or -1.
func DefaultAddressIndex(addrs []ShippingAddress) int {
	for i, a := range addrs {
		if a.IsDefault {
			return i
		}
	}
	return -1
}
