package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/shopease/internal/domain"
	"github.com/gosimple/slug"
)

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	_, err := c.do(ctx, call{method: http.MethodGet, path: "category"}, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) (domain.Category, error) {
	var out domain.Category
	_, err := c.do(ctx, categoryCall(http.MethodPost, "category/create-category", token, in), &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, token, id string, in CategoryInput) (domain.Category, error) {
	var out domain.Category
	_, err := c.do(ctx, categoryCall(http.MethodPatch, "category/update-category/"+id, token, in), &out)
	return out, err
}

func categoryCall(method, path, token string, in CategoryInput) call {
	req := call{
		method: method,
		path:   path,
		token:  token,
		form: map[string][]string{
			"name":        {in.Name},
			"description": {in.Description},
		},
	}
	if in.Logo != nil {
		req.files = append(req.files, formFile{field: "logo", filename: in.Logo.Filename, content: in.Logo.Content})
	}
	return req
}

func (c *Client) ListProducts(ctx context.Context, q ListQuery) ([]domain.Product, domain.PageMeta, error) {
	var out []domain.Product
	meta, err := c.do(ctx, call{method: http.MethodGet, path: "product", query: q.Values()}, &out)
	return out, metaOrEmpty(meta), err
}

func (c *Client) ListActiveProducts(ctx context.Context, q ListQuery) ([]domain.Product, domain.PageMeta, error) {
	var out []domain.Product
	meta, err := c.do(ctx, call{method: http.MethodGet, path: "product/active", query: q.Values()}, &out)
	return out, metaOrEmpty(meta), err
}

func (c *Client) GetProductBySlug(ctx context.Context, productSlug string) (domain.Product, error) {
	var out domain.Product
	_, err := c.do(ctx, call{method: http.MethodGet, path: "product/slug/" + url.PathEscape(productSlug)}, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, token string, in ProductInput) (domain.Product, error) {
	var out domain.Product
	_, err := c.do(ctx, productCall(http.MethodPost, "product/create-product", token, in), &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, in ProductInput) (domain.Product, error) {
	var out domain.Product
	_, err := c.do(ctx, productCall(http.MethodPatch, "product/update-product/"+id, token, in), &out)
	return out, err
}

func productCall(method, path, token string, in ProductInput) call {
	s := in.Slug
	if s == "" {
		s = slug.Make(in.Name)
	}
	form := map[string][]string{
		"name":        {in.Name},
		"slug":        {s},
		"price":       {in.Price.String()},
		"stock":       {strconv.Itoa(in.Stock)},
		"category":    {in.Category},
		"description": {in.Description},
	}
	if len(in.Features) > 0 {
		form["features"] = in.Features
	}
	if len(in.Colors) > 0 {
		form["color"] = in.Colors
	}

	req := call{method: method, path: path, token: token, form: form}
	for _, img := range in.Images {
		req.files = append(req.files, formFile{field: "images", filename: img.Filename, content: img.Content})
	}
	return req
}

// DeleteProductImage removes one image from a product. The backend keys
// images by path, so an absolute url is reduced to its path first.
func (c *Client) DeleteProductImage(ctx context.Context, token, productID, imageURL string) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   "product/delete-image/" + productID,
		token:  token,
		body:   map[string]string{"imagePath": ImagePath(imageURL)},
	}, nil)
	return err
}

func ImagePath(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(imageURL, "/")
	}
	return strings.TrimPrefix(u.Path, "/")
}

func (c *Client) SubmitContact(ctx context.Context, in ContactRequest) error {
	_, err := c.do(ctx, call{method: http.MethodPost, path: "contact/create-contact", body: in}, nil)
	return err
}
