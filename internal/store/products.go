package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter narrows ListProducts. Zero values match everything.
type ProductFilter struct {
	Search     string
	CategoryID string
	ActiveOnly bool
	Limit      int
	Offset     int
}

const productColumns = `
	p.id, p.name, COALESCE(p.category_id, ''), COALESCE(c.name, 'Uncategorized'),
	p.description, p.cultural_significance, p.price, p.price_range, p.origin,
	COALESCE(p.artisan_id, ''), COALESCE(a.name, ''), p.image_url,
	p.tags, p.occasions, p.materials, COALESCE(p.craft_time, ''), p.is_active,
	p.created_at, p.updated_at`

const productJoins = `
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id
	LEFT JOIN artisans a ON p.artisan_id = a.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p                          models.Product
		price                      string
		tags, occasions, materials string
	)
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Category,
		&p.Description, &p.CulturalSignificance, &price, &p.PriceRange, &p.Origin,
		&p.ArtisanID, &p.Artisan, &p.ImageURL,
		&tags, &occasions, &materials, &p.CraftTime, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return p, fmt.Errorf("product %s: bad price %q: %w", p.ID, price, err)
	}
	p.Tags = decodeSet(tags)
	p.Occasions = decodeSet(occasions)
	p.Materials = decodeSet(materials)
	return p, nil
}

// ListActiveProducts returns every active product, newest first.
func (s *Store) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	return s.ListProducts(ctx, ProductFilter{ActiveOnly: true})
}

func (f ProductFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.ActiveOnly {
		clauses = append(clauses, "p.is_active = 1")
	}
	if f.CategoryID != "" {
		clauses = append(clauses, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		clauses = append(clauses, "(p.name LIKE ? OR p.description LIKE ? OR p.origin LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	where, args := f.where()
	query := "SELECT " + productColumns + productJoins + where + " ORDER BY p.created_at DESC, p.rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+productColumns+productJoins+" WHERE p.id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts p, assigning an id when empty and setting both timestamps.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO products (id, name, category_id, description, cultural_significance, price, price_range,
			origin, artisan_id, image_url, tags, occasions, materials, craft_time, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.CategoryID), p.Description, p.CulturalSignificance, p.Price.String(), p.PriceRange,
		p.Origin, nullString(p.ArtisanID), p.ImageURL, encodeSet(p.Tags), encodeSet(p.Occasions), encodeSet(p.Materials),
		nullString(p.CraftTime), p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = s.now()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE products SET name = ?, category_id = ?, description = ?, cultural_significance = ?, price = ?,
			price_range = ?, origin = ?, artisan_id = ?, image_url = ?, tags = ?, occasions = ?, materials = ?,
			craft_time = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, nullString(p.CategoryID), p.Description, p.CulturalSignificance, p.Price.String(),
		p.PriceRange, p.Origin, nullString(p.ArtisanID), p.ImageURL, encodeSet(p.Tags), encodeSet(p.Occasions), encodeSet(p.Materials),
		nullString(p.CraftTime), p.Active, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectRow(res)
}

// SetProductActive toggles visibility. Products are never hard-deleted.
func (s *Store) SetProductActive(ctx context.Context, id string, active bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?`, active, s.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Store) CountProducts(ctx context.Context, f ProductFilter) (int, error) {
	where, args := f.where()
	var n int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where, args...).Scan(&n)
	return n, err
}
