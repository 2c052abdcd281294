package service

import (
	"context"

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
	"go.uber.org/zap"
)

// AddressBook is a user's saved addresses and the one currently chosen.
// Selected is -1 when nothing is chosen.
type AddressBook struct {
	Addresses []domain.ShippingAddress `json:"addresses"`
	Selected  int                      `json:"selected"`
}

func (b AddressBook) SelectedAddress() (domain.ShippingAddress, bool) {
	return Select(b.Addresses, b.Selected)
}

type AddressService struct {
	backend AddressBackend
	auth    Authenticator
	logger  *zap.Logger
}

func NewAddressService(b AddressBackend, auth Authenticator, log *zap.Logger) *AddressService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AddressService{backend: b, auth: auth, logger: log}
}

// Load reads the saved addresses and pre-selects the default one.
func (s *AddressService) Load(ctx context.Context, store session.Store) (AddressBook, error) {
	id, err := userID(store)
	if err != nil {
		return AddressBook{}, err
	}

	var info domain.UserInfo
	err = s.auth.Do(ctx, store, func(token string) error {
		var err error
		info, err = s.backend.GetUserInfo(ctx, token, id)
		return err
	})
	if err != nil {
		return AddressBook{}, err
	}

	addrs := info.ShippingAddresses
	if addrs == nil {
		addrs = []domain.ShippingAddress{}
	}
	return AddressBook{Addresses: addrs, Selected: domain.DefaultAddressIndex(addrs)}, nil
}

// Select returns the address at index, or the default one when index is
// negative. ok is false when neither exists.
func Select(addrs []domain.ShippingAddress, index int) (domain.ShippingAddress, bool) {
	if index < 0 {
		index = domain.DefaultAddressIndex(addrs)
	}
	if index < 0 || index >= len(addrs) {
		return domain.ShippingAddress{}, false
	}
	return addrs[index], true
}

// Save validates and stores a new address, then reloads the book with the
// new address selected. Invalid input never reaches the backend.
func (s *AddressService) Save(ctx context.Context, store session.Store, addr domain.ShippingAddress) (AddressBook, error) {
	if err := validateStruct(addr); err != nil {
		return AddressBook{}, err
	}
	id, err := userID(store)
	if err != nil {
		return AddressBook{}, err
	}

	var created domain.ShippingAddress
	err = s.auth.Do(ctx, store, func(token string) error {
		var err error
		created, err = s.backend.CreateShippingAddress(ctx, token, id, addr)
		return err
	})
	if err != nil {
		return AddressBook{}, err
	}

	book, err := s.Load(ctx, store)
	if err != nil {
		return AddressBook{}, err
	}
	for i, a := range book.Addresses {
		if created.ID != "" && a.ID == created.ID {
			book.Selected = i
			break
		}
	}
	return book, nil
}
