// internal/lookup/provider.go
package lookup

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/config"
)

// ErrNotFound is returned when a provider has no entry for a barcode.
var ErrNotFound = errors.New("lookup: barcode not found")

// Product is the normalized result of a product database lookup.
type Product struct {
	Name       string `json:"name"`
	Barcode    string `json:"barcode"`
	Brand      string `json:"brand,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
	Categories string `json:"categories,omitempty"`
}

// Description builds the free-text product description the inventory
// service stores alongside a created product.
func (p *Product) Description() string {
	switch {
	case p.Brand != "" && p.Quantity != "":
		return p.Brand + " - " + p.Quantity
	case p.Brand != "":
		return p.Brand
	default:
		return p.Quantity
	}
}

// Provider looks up a barcode in one external product database.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, barcode string) (*Product, error)
}

// Chain queries providers in fixed order; the first hit wins and a
// provider error skips to the next.
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// NewChain builds the fallback chain from configuration, in the fixed
// order OpenFoodFacts, UPC Database, EAN-Search.
func NewChain(cfg *config.LookupConfig, logger *zap.Logger) *Chain {
	client := &http.Client{Timeout: cfg.Timeout}

	var providers []Provider
	if cfg.OpenFoodFacts {
		providers = append(providers, NewOpenFoodFacts(client, logger))
	}
	if cfg.UPCDatabase {
		providers = append(providers, NewUPCDatabase(client, logger))
	}
	if cfg.EANSearch {
		providers = append(providers, NewEANSearch(client, logger))
	}

	return NewChainWith(logger, providers...)
}

// NewChainWith builds a chain from explicit providers.
func NewChainWith(logger *zap.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger.With(zap.String("component", "lookup-chain")),
	}
}

// Lookup walks the chain. Returns ErrNotFound when no provider knows the
// barcode.
func (c *Chain) Lookup(ctx context.Context, barcode string) (*Product, error) {
	for _, provider := range c.providers {
		start := time.Now()
		product, err := provider.Lookup(ctx, barcode)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.logger.Warn("Product database lookup failed",
					zap.String("provider", provider.Name()),
					zap.String("barcode", barcode),
					zap.Error(err),
				)
			}
			continue
		}

		c.logger.Info("Barcode resolved by product database",
			zap.String("provider", provider.Name()),
			zap.String("barcode", barcode),
			zap.String("product", product.Name),
			zap.Duration("duration", time.Since(start)),
		)
		return product, nil
	}
	return nil, ErrNotFound
}
