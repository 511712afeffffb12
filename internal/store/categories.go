package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/google/uuid"
)

const categoryColumns = `id, name, slug, description, COALESCE(parent_id, ''), image_url, sort_order, is_active, created_at, updated_at`

func scanCategory(row rowScanner) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.ImageURL, &c.SortOrder, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCategories returns categories ordered by sort order then name.
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY sort_order, name"

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c, err := scanCategory(s.DB.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategoryByName matches case-insensitively on name or slug.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	c, err := scanCategory(s.DB.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE lower(name) = lower(?) OR slug = lower(?) LIMIT 1", name, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, parent_id, image_url, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, nullString(c.ParentID), c.ImageURL, c.SortOrder, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = s.now()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE categories SET name = ?, slug = ?, description = ?, parent_id = ?, image_url = ?, sort_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Slug, c.Description, nullString(c.ParentID), c.ImageURL, c.SortOrder, c.Active, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectRow(res)
}

func (s *Store) SetCategoryActive(ctx context.Context, id string, active bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE categories SET is_active = ?, updated_at = ? WHERE id = ?`, active, s.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
