// internal/grocy/client.go
package grocy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
)

// ErrNotFound is returned when Grocy knows nothing about a barcode or
// product.
var ErrNotFound = fmt.Errorf("grocy: not found")

// Product is the subset of Grocy's product object the dispatcher needs.
type Product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Inventory is the stock operation surface the action dispatcher depends
// on. Satisfied by Client; tests substitute fakes.
type Inventory interface {
	ProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	CreateProduct(ctx context.Context, name, description string) (int, error)
	AddBarcode(ctx context.Context, productID int, barcode string) error
	AddStock(ctx context.Context, productID int, amount decimal.Decimal) error
	ConsumeStock(ctx context.Context, productID int, amount decimal.Decimal) error
}

// Client is a Grocy REST API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Grocy client from configuration.
func NewClient(cfg *config.GrocyConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "grocy-client")),
	}
}

// request performs one API call and decodes the JSON response into out
// when out is non-nil.
func (c *Client) request(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/"+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("GROCY-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("grocy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("grocy returned status %d for %s", resp.StatusCode, endpoint)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode grocy response: %w", err)
		}
	}
	return nil
}

// TestConnection checks the configured instance is reachable.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "system/info", nil, nil)
}

// ProductByBarcode finds the product a barcode is attached to. Returns
// ErrNotFound when the barcode is unknown.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var result struct {
		Product Product `json:"product"`
	}
	endpoint := "stock/products/by-barcode/" + url.PathEscape(barcode)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	if result.Product.ID == 0 {
		return nil, ErrNotFound
	}
	return &result.Product, nil
}

// CreateProduct creates a new product and returns its ID. Grocy requires
// a location and quantity unit; ID 1 is the instance default for both.
func (c *Client) CreateProduct(ctx context.Context, name, description string) (int, error) {
	body := map[string]interface{}{
		"name":                        name,
		"description":                 description,
		"location_id":                 1,
		"qu_id_purchase":              1,
		"qu_id_stock":                 1,
		"qu_factor_purchase_to_stock": 1,
	}

	var result struct {
		CreatedObjectID json.Number `json:"created_object_id"`
	}
	if err := c.request(ctx, http.MethodPost, "objects/products", body, &result); err != nil {
		return 0, err
	}

	id, err := result.CreatedObjectID.Int64()
	if err != nil {
		return 0, fmt.Errorf("unexpected created_object_id %q: %w", result.CreatedObjectID, err)
	}

	c.logger.Info("Product created in Grocy", zap.String("name", name), zap.Int64("product_id", id))
	return int(id), nil
}

// AddBarcode attaches a barcode to an existing product.
func (c *Client) AddBarcode(ctx context.Context, productID int, barcode string) error {
	body := map[string]interface{}{
		"product_id": productID,
		"barcode":    barcode,
	}
	return c.request(ctx, http.MethodPost, "objects/product_barcodes", body, nil)
}

// AddStock books the given amount into stock as a purchase.
func (c *Client) AddStock(ctx context.Context, productID int, amount decimal.Decimal) error {
	body := map[string]interface{}{
		"amount":           amount.InexactFloat64(),
		"transaction_type": "purchase",
	}
	return c.request(ctx, http.MethodPost, fmt.Sprintf("stock/products/%d/add", productID), body, nil)
}

// ConsumeStock books the given amount out of stock.
func (c *Client) ConsumeStock(ctx context.Context, productID int, amount decimal.Decimal) error {
	body := map[string]interface{}{
		"amount":           amount.InexactFloat64(),
		"transaction_type": "consume",
	}
	return c.request(ctx, http.MethodPost, fmt.Sprintf("stock/products/%d/consume", productID), body, nil)
}
