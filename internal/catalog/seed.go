package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/shopspring/decimal"
)

// SeedResult counts the rows Seed inserted.
type SeedResult struct {
	Categories int
	Artisans   int
	Products   int
	Orders     int
}

// Seed loads the bundled sample data into st. Categories are matched by
// slug, artisans and products by name, so running it twice inserts nothing
// new. Demo orders are only added to an empty orders table.
func Seed(ctx context.Context, st *store.Store) (SeedResult, error) {
	var res SeedResult
	data, err := LoadSampleData()
	if err != nil {
		return res, err
	}

	categoryIDs := make(map[string]string)
	for _, c := range data.Categories {
		existing, err := st.GetCategoryByName(ctx, c.Slug)
		switch {
		case err == nil:
			categoryIDs[c.Slug] = existing.ID
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, err
		}
		if err := st.CreateCategory(ctx, &c); err != nil {
			return res, err
		}
		categoryIDs[c.Slug] = c.ID
		res.Categories++
	}

	artisanIDs := make(map[string]string)
	for _, a := range data.Artisans {
		existing, err := st.GetArtisanByName(ctx, a.Name)
		switch {
		case err == nil:
			artisanIDs[a.Name] = existing.ID
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, err
		}
		if err := st.CreateArtisan(ctx, &a); err != nil {
			return res, err
		}
		artisanIDs[a.Name] = a.ID
		res.Artisans++
	}

	current, err := st.ListProducts(ctx, store.ProductFilter{})
	if err != nil {
		return res, err
	}
	byName := make(map[string]models.Product, len(current))
	for _, p := range current {
		byName[p.Name] = p
	}

	var seeded []models.Product
	for _, sp := range data.Products {
		if p, ok := byName[sp.Name]; ok {
			seeded = append(seeded, p)
			continue
		}
		p := sp.Product
		p.ID = "" // sample ids are for the offline provider only
		p.CategoryID = categoryIDs[sp.CategorySlug]
		p.ArtisanID = artisanIDs[sp.ArtisanName]
		p.Active = true
		if err := st.CreateProduct(ctx, &p); err != nil {
			return res, fmt.Errorf("seed product %q: %w", sp.Name, err)
		}
		seeded = append(seeded, p)
		res.Products++
	}

	count, err := st.CountOrders(ctx, store.OrderFilter{})
	if err != nil {
		return res, err
	}
	if count > 0 || len(seeded) == 0 {
		return res, nil
	}
	for i, o := range data.Orders {
		product := seeded[i%len(seeded)]
		o.ProductID = product.ID
		o.TotalAmount = decimal.NewNullDecimal(product.Price)
		if err := st.CreateOrder(ctx, &o); err != nil {
			return res, fmt.Errorf("seed order for %q: %w", o.CustomerName, err)
		}
		res.Orders++
	}
	return res, nil
}
