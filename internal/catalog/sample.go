package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
)

//go:embed sample_data.json
var sampleJSON []byte

// SampleData is the bundled demo data set.
type SampleData struct {
	Categories []models.Category `json:"categories"`
	Artisans   []models.Artisan  `json:"artisans"`
	Products   []SampleProduct   `json:"products"`
	Orders     []models.Order    `json:"orders"`
}

// SampleProduct references its category by slug and artisan by name.
type SampleProduct struct {
	models.Product
	CategorySlug string `json:"category_slug"`
	ArtisanName  string `json:"artisan"`
}

// LoadSampleData decodes the embedded data set.
func LoadSampleData() (*SampleData, error) {
	var data SampleData
	if err := json.Unmarshal(sampleJSON, &data); err != nil {
		return nil, fmt.Errorf("decode sample data: %w", err)
	}
	return &data, nil
}

// SampleProvider serves the bundled products without touching the database.
type SampleProvider struct{}

func (SampleProvider) Name() string { return "sample" }

func (SampleProvider) FetchCatalog(context.Context) ([]models.Product, error) {
	data, err := LoadSampleData()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(data.Categories))
	for _, c := range data.Categories {
		names[c.Slug] = c.Name
	}

	products := make([]models.Product, 0, len(data.Products))
	for _, sp := range data.Products {
		p := sp.Product
		p.Category = names[sp.CategorySlug]
		if p.Category == "" {
			p.Category = "Uncategorized"
		}
		p.Artisan = sp.ArtisanName
		p.Active = true
		products = append(products, p)
	}
	return products, nil
}
