// internal/lookup/upcdatabase.go
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const upcDatabaseBaseURL = "https://api.upcdatabase.org/product"

// UPCDatabase queries the UPC Database free tier. The free tier is rate
// limited to roughly 100 requests per day.
type UPCDatabase struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewUPCDatabase creates a UPC Database provider.
func NewUPCDatabase(client *http.Client, logger *zap.Logger) *UPCDatabase {
	return &UPCDatabase{
		baseURL: upcDatabaseBaseURL,
		http:    client,
		logger:  logger.With(zap.String("provider", "upcdatabase")),
	}
}

func (p *UPCDatabase) Name() string {
	return "upcdatabase"
}

func (p *UPCDatabase) Lookup(ctx context.Context, barcode string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/%s", p.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upcdatabase request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upcdatabase returned status %d", resp.StatusCode)
	}

	var body struct {
		Success  bool   `json:"success"`
		Title    string `json:"title"`
		Brand    string `json:"brand"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode upcdatabase response: %w", err)
	}

	if !body.Success || body.Title == "" {
		return nil, ErrNotFound
	}

	return &Product{
		Name:       body.Title,
		Barcode:    barcode,
		Brand:      body.Brand,
		Categories: body.Category,
	}, nil
}
