package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ResourceError is a non-2xx answer from a resource endpoint. Message is the
// response body text.
type ResourceError struct {
	StatusCode int
	Message    string
}

func (e *ResourceError) Error() string {
	return e.Message
}

// Product represents a catalog product
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	ProductTypeID string  `json:"productTypeId"`
}

// ProductAttribute represents a name/value attribute attached to a product
type ProductAttribute struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductType represents a product category
type ProductType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductGroup is one entry of the products-by-type listing
type ProductGroup struct {
	ProductType ProductType `json:"productType"`
	Products    []Product   `json:"products"`
}

// ProductInput is the create/update payload for a product
type ProductInput struct {
	Name          string             `json:"name" validate:"required,max=200"`
	Description   string             `json:"description" validate:"max=4000"`
	Price         float64            `json:"price" validate:"gte=0"`
	Stock         int                `json:"stock" validate:"gte=0"`
	ImageURL      string             `json:"imageUrl,omitempty" validate:"omitempty,url"`
	ProductTypeID string             `json:"productTypeId" validate:"required"`
	Attributes    []ProductAttribute `json:"attributes,omitempty" validate:"dive"`
}

// Validate checks the input before it is sent to the backend
func (p ProductInput) Validate() error {
	return validate.Struct(p)
}

// GetProduct returns a product by ID
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	resp, err := c.Get(ctx, productPath(id))
	if err != nil {
		return nil, err
	}

	var product Product
	if err := decodeResource(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductAttributes returns the attributes of a product
func (c *Client) ProductAttributes(ctx context.Context, id string) ([]ProductAttribute, error) {
	resp, err := c.Get(ctx, productPath(id)+"/attributes")
	if err != nil {
		return nil, err
	}

	var attrs []ProductAttribute
	if err := decodeResource(resp, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// UpdateProduct replaces a product and returns the stored version
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (*Product, error) {
	resp, err := c.Put(ctx, productPath(id), input)
	if err != nil {
		return nil, err
	}

	var product Product
	if err := decodeResource(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product and returns it with its assigned ID
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	resp, err := c.Post(ctx, "/Product", input)
	if err != nil {
		return nil, err
	}

	var product Product
	if err := decodeResource(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product by ID
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	resp, err := c.Delete(ctx, productPath(id))
	if err != nil {
		return err
	}
	return decodeResource(resp, nil)
}

// ProductsByType returns all products grouped by product type
func (c *Client) ProductsByType(ctx context.Context) ([]ProductGroup, error) {
	resp, err := c.Get(ctx, "/Product/by-type")
	if err != nil {
		return nil, err
	}

	var groups []ProductGroup
	if err := decodeResource(resp, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ProductTypes returns all product types
func (c *Client) ProductTypes(ctx context.Context) ([]ProductType, error) {
	resp, err := c.Get(ctx, "/ProductType")
	if err != nil {
		return nil, err
	}

	var types []ProductType
	if err := decodeResource(resp, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func productPath(id string) string {
	return "/Product/" + url.PathEscape(id)
}

// decodeResource closes resp, turning a non-2xx status into a *ResourceError
// and decoding the body into out when out is non-nil.
func decodeResource(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &ResourceError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
