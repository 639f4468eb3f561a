// internal/lookup/openfoodfacts.go
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const openFoodFactsBaseURL = "https://world.openfoodfacts.org/api/v2"

// OpenFoodFacts queries the OpenFoodFacts community database.
type OpenFoodFacts struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewOpenFoodFacts creates an OpenFoodFacts provider.
func NewOpenFoodFacts(client *http.Client, logger *zap.Logger) *OpenFoodFacts {
	return &OpenFoodFacts{
		baseURL: openFoodFactsBaseURL,
		http:    client,
		logger:  logger.With(zap.String("provider", "openfoodfacts")),
	}
}

func (p *OpenFoodFacts) Name() string {
	return "openfoodfacts"
}

func (p *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/product/%s.json", p.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("openfoodfacts returned status %d", resp.StatusCode)
	}

	var body struct {
		Status  int `json:"status"`
		Product struct {
			ProductName string `json:"product_name"`
			Brands      string `json:"brands"`
			Quantity    string `json:"quantity"`
			Categories  string `json:"categories"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode openfoodfacts response: %w", err)
	}

	if body.Status != 1 || body.Product.ProductName == "" {
		return nil, ErrNotFound
	}

	return &Product{
		Name:       body.Product.ProductName,
		Barcode:    barcode,
		Brand:      body.Product.Brands,
		Quantity:   body.Product.Quantity,
		Categories: body.Product.Categories,
	}, nil
}
