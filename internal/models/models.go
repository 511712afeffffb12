package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Prices are in INR.
type Product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	CategoryID           string          `json:"category_id,omitempty"`
	Category             string          `json:"category"` // resolved category name
	Description          string          `json:"description"`
	CulturalSignificance string          `json:"cultural_significance"`
	Price                decimal.Decimal `json:"price"`
	PriceRange           string          `json:"price_range"` // display only, e.g. "₹12,000 - ₹25,000"
	Origin               string          `json:"origin"`
	ArtisanID            string          `json:"artisan_id,omitempty"`
	Artisan              string          `json:"artisan,omitempty"` // resolved artisan name
	ImageURL             string          `json:"image_url"`
	Tags                 []string        `json:"tags"`
	Occasions            []string        `json:"occasions"`
	Materials            []string        `json:"materials"`
	CraftTime            string          `json:"craft_time,omitempty"`
	Active               bool            `json:"is_active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// HasOccasion reports whether the occasions set contains o exactly.
func (p Product) HasOccasion(o string) bool {
	return contains(p.Occasions, o)
}

// HasTag reports whether the tags set contains t exactly.
func (p Product) HasTag(t string) bool {
	return contains(p.Tags, t)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	SortOrder   int       `json:"sort_order"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type Artisan struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Bio                string             `json:"bio,omitempty"`
	Location           string             `json:"location"`
	Specialization     []string           `json:"specialization"`
	ContactInfo        string             `json:"contact_info,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Rating             float64            `json:"rating"`
	TotalProducts      int                `json:"total_products"`
	Active             bool               `json:"is_active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
