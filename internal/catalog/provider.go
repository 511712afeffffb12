// Package catalog serves the product catalog to the assistant. Products come
// from a chain of providers (live store, bundled sample, placeholder) and are
// cached for a short cooldown.
package catalog

import (
	"context"
	"errors"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Provider is one source of catalog data.
type Provider interface {
	Name() string
	FetchCatalog(ctx context.Context) ([]models.Product, error)
}

// ProductLister is the part of the store the live provider needs.
type ProductLister interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
}

// StoreProvider serves active products from the database.
type StoreProvider struct {
	Store ProductLister
}

func (p StoreProvider) Name() string { return "store" }

func (p StoreProvider) FetchCatalog(ctx context.Context) ([]models.Product, error) {
	if p.Store == nil {
		return nil, errors.New("catalog: no store configured")
	}
	return p.Store.ListActiveProducts(ctx)
}

// PlaceholderProvider returns a single hard-coded product and never fails.
type PlaceholderProvider struct{}

func (PlaceholderProvider) Name() string { return "placeholder" }

func (PlaceholderProvider) FetchCatalog(context.Context) ([]models.Product, error) {
	return []models.Product{Placeholder()}, nil
}

// Placeholder is the last-resort catalog entry.
func Placeholder() models.Product {
	return models.Product{
		ID:                   "demo-1",
		Name:                 "Traditional Handcraft Item",
		Category:             "Demo",
		Description:          "Sample product for demonstration purposes.",
		CulturalSignificance: "Represents traditional Indian craftsmanship.",
		Price:                decimal.NewFromInt(100),
		PriceRange:           "₹50 - ₹150",
		Origin:               "India",
		ImageURL:             "https://images.pexels.com/photos/1545743/pexels-photo-1545743.jpeg",
		Tags:                 []string{"traditional", "handmade"},
		Occasions:            []string{"gift", "home decor"},
		Materials:            []string{"natural materials"},
		CraftTime:            "1 week",
		Active:               true,
	}
}

// Chain tries providers in order and returns the first successful result.
type Chain struct {
	providers []Provider
	logger    zerolog.Logger
}

func NewChain(logger zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Fetch returns the first provider result that is not an error, along with
// the provider's name. Errors are logged and never returned.
func (c *Chain) Fetch(ctx context.Context) ([]models.Product, string) {
	for _, p := range c.providers {
		products, err := p.FetchCatalog(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("provider", p.Name()).Msg("Catalog provider failed, trying next")
			continue
		}
		return products, p.Name()
	}
	c.logger.Error().Msg("All catalog providers failed")
	return nil, "none"
}
