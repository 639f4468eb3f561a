// internal/lookup/eansearch.go
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const eanSearchBaseURL = "https://api.ean-search.org/api"

// EANSearch queries the EAN-Search.org database.
type EANSearch struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewEANSearch creates an EAN-Search provider.
func NewEANSearch(client *http.Client, logger *zap.Logger) *EANSearch {
	return &EANSearch{
		baseURL: eanSearchBaseURL,
		http:    client,
		logger:  logger.With(zap.String("provider", "eansearch")),
	}
}

func (p *EANSearch) Name() string {
	return "eansearch"
}

func (p *EANSearch) Lookup(ctx context.Context, barcode string) (*Product, error) {
	query := url.Values{}
	query.Set("op", "barcode-lookup")
	query.Set("barcode", barcode)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eansearch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("eansearch returned status %d", resp.StatusCode)
	}

	// EAN-Search answers with a list holding one entry on a hit.
	var body []struct {
		Name         string `json:"name"`
		CategoryName string `json:"categoryName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode eansearch response: %w", err)
	}

	if len(body) == 0 || body[0].Name == "" {
		return nil, ErrNotFound
	}

	return &Product{
		Name:       body[0].Name,
		Barcode:    barcode,
		Categories: body[0].CategoryName,
	}, nil
}
