package matcher

import (
	"strings"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/shopspring/decimal"
)

const recommendLimit = 6

// Preferences narrows a recommendation. Empty fields are ignored.
type Preferences struct {
	Budget   decimal.NullDecimal `json:"budget"`
	Occasion string              `json:"occasion,omitempty"`
	Category string              `json:"category,omitempty"`
}

type Recommendation struct {
	Products        []models.Product `json:"products"`
	Reason          string           `json:"reason"`
	CulturalContext string           `json:"cultural_context,omitempty"`
}

// Recommend filters catalog by every preference given and explains the pick.
// The cultural context is the first recommended product's significance.
func Recommend(catalog []models.Product, prefs Preferences, lang models.Language) Recommendation {
	occasion := strings.ToLower(strings.TrimSpace(prefs.Occasion))
	category := strings.ToLower(strings.TrimSpace(prefs.Category))

	list := filter(catalog, func(p models.Product) bool {
		if prefs.Budget.Valid && p.Price.GreaterThan(prefs.Budget.Decimal) {
			return false
		}
		if occasion != "" && !p.HasOccasion(occasion) {
			return false
		}
		if category != "" && !strings.Contains(strings.ToLower(p.Category), category) {
			return false
		}
		return true
	})
	list = limit(list, recommendLimit)

	rec := Recommendation{
		Products: list,
		Reason:   phrasesFor(lang).reason,
	}
	if rec.Products == nil {
		rec.Products = []models.Product{}
	}
	if len(list) > 0 {
		rec.CulturalContext = list[0].CulturalSignificance
	}
	return rec
}
