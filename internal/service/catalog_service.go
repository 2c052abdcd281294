package service

import (
	"context"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/internal/session"
	"go.uber.org/zap"
)

type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Meta       domain.PageMeta  `json:"meta"`
	TotalPages int              `json:"total_pages"`
}

// CatalogService fronts the product, category and contact endpoints.
// Reads are anonymous; writes need an admin session.
type CatalogService struct {
	backend CatalogBackend
	auth    Authenticator
	logger  *zap.Logger
}

func NewCatalogService(b CatalogBackend, auth Authenticator, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{backend: b, auth: auth, logger: log}
}

func (s *CatalogService) Products(ctx context.Context, q backend.ListQuery, activeOnly bool) (ProductPage, error) {
	list := s.backend.ListProducts
	if activeOnly {
		list = s.backend.ListActiveProducts
	}
	products, meta, err := list(ctx, q)
	if err != nil {
		return ProductPage{}, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return ProductPage{Products: products, Meta: meta, TotalPages: meta.TotalPages()}, nil
}

func (s *CatalogService) Product(ctx context.Context, slug string) (domain.Product, error) {
	return s.backend.GetProductBySlug(ctx, slug)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.backend.ListCategories(ctx)
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, err
}

func (s *CatalogService) Contact(ctx context.Context, req backend.ContactRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	return s.backend.SubmitContact(ctx, req)
}

func (s *CatalogService) CreateCategory(ctx context.Context, store session.Store, in backend.CategoryInput) (domain.Category, error) {
	if err := validateStruct(in); err != nil {
		return domain.Category{}, err
	}
	var out domain.Category
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		out, err = s.backend.CreateCategory(ctx, token, in)
		return err
	})
	return out, err
}

func (s *CatalogService) UpdateCategory(ctx context.Context, store session.Store, id string, in backend.CategoryInput) (domain.Category, error) {
	if err := validateStruct(in); err != nil {
		return domain.Category{}, err
	}
	var out domain.Category
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		out, err = s.backend.UpdateCategory(ctx, token, id, in)
		return err
	})
	return out, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, store session.Store, in backend.ProductInput) (domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return domain.Product{}, err
	}
	var out domain.Product
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		out, err = s.backend.CreateProduct(ctx, token, in)
		return err
	})
	if err == nil {
		s.logger.Info("product created", zap.String("product_id", out.ID), zap.String("slug", out.Slug))
	}
	return out, err
}

func (s *CatalogService) UpdateProduct(ctx context.Context, store session.Store, id string, in backend.ProductInput) (domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return domain.Product{}, err
	}
	var out domain.Product
	err := s.auth.Do(ctx, store, func(token string) error {
		var err error
		out, err = s.backend.UpdateProduct(ctx, token, id, in)
		return err
	})
	return out, err
}

func (s *CatalogService) DeleteProductImage(ctx context.Context, store session.Store, productID, imageURL string) error {
	if imageURL == "" {
		return &ValidationError{Fields: []FieldError{{Field: "imagePath", Message: "imagePath is required"}}}
	}
	return s.auth.Do(ctx, store, func(token string) error {
		return s.backend.DeleteProductImage(ctx, token, productID, imageURL)
	})
}

// validateProduct adds the price check the validate tags cannot express on a decimal.
func validateProduct(in backend.ProductInput) error {
	err := validateStruct(in)
	if in.Price.IsPositive() {
		return err
	}
	price := FieldError{Field: "Price", Message: "Price must be greater than 0"}
	if verr, ok := err.(*ValidationError); ok {
		verr.Fields = append(verr.Fields, price)
		return verr
	}
	if err != nil {
		return err
	}
	return &ValidationError{Fields: []FieldError{price}}
}
