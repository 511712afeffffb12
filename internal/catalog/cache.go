package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/rs/zerolog"
)

const DefaultCooldown = 5 * time.Second

// Cache holds the last catalog snapshot and re-fetches it through the chain
// once the cooldown has passed.
type Cache struct {
	chain    *Chain
	cooldown time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu        sync.Mutex
	now       func() time.Time
	snapshot  []models.Product
	fetchedAt time.Time
	source    string
}

func NewCache(chain *Chain, cooldown time.Duration, m *metrics.Metrics) *Cache {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Cache{
		chain:    chain,
		cooldown: cooldown,
		metrics:  m,
		logger:   logger.Component("catalog"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for cooldown checks.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Load returns the cached snapshot while it is fresh and non-empty, and
// re-fetches otherwise. It never fails.
func (c *Cache) Load(ctx context.Context) []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.snapshot) > 0 && c.now().Sub(c.fetchedAt) < c.cooldown {
		c.logger.Debug().Int("products", len(c.snapshot)).Msg("Using cached catalog")
		return c.snapshot
	}
	return c.fetchLocked(ctx)
}

// Refresh drops the snapshot and fetches a new one regardless of the cooldown.
func (c *Cache) Refresh(ctx context.Context) []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = nil
	c.fetchedAt = time.Time{}
	products := c.fetchLocked(ctx)
	c.logger.Info().Int("products", len(products)).Str("source", c.source).Msg("Catalog refreshed")
	return products
}

// Lookup finds a product by id in the current snapshot.
func (c *Cache) Lookup(ctx context.Context, id string) (models.Product, bool) {
	for _, p := range c.Load(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Source names the provider that produced the current snapshot.
func (c *Cache) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Cache) fetchLocked(ctx context.Context) []models.Product {
	products, source := c.chain.Fetch(ctx)
	c.snapshot = products
	c.fetchedAt = c.now()
	c.source = source
	c.metrics.RecordCatalogFetch(source, len(products))
	c.logger.Debug().Int("products", len(products)).Str("source", source).Msg("Fetched catalog")
	return products
}
