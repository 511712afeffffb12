package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/google/uuid"
)

// total_products is derived from the products table rather than stored counts.
const artisanColumns = `a.id, a.name, a.bio, a.location, a.specialization, a.contact_info, a.verification_status,
	a.rating, (SELECT COUNT(*) FROM products p WHERE p.artisan_id = a.id), a.is_active, a.created_at, a.updated_at`

func scanArtisan(row rowScanner) (models.Artisan, error) {
	var (
		a    models.Artisan
		spec string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Bio, &a.Location, &spec, &a.ContactInfo, &a.VerificationStatus,
		&a.Rating, &a.TotalProducts, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	a.Specialization = decodeSet(spec)
	return a, err
}

// ListArtisans returns artisans by name, optionally filtered by a name/location search.
func (s *Store) ListArtisans(ctx context.Context, search string) ([]models.Artisan, error) {
	query := "SELECT " + artisanColumns + " FROM artisans a"
	var args []any
	if search != "" {
		query += " WHERE a.name LIKE ? OR a.location LIKE ?"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	query += " ORDER BY a.name"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Artisan
	for rows.Next() {
		a, err := scanArtisan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetArtisan(ctx context.Context, id string) (*models.Artisan, error) {
	a, err := scanArtisan(s.DB.QueryRowContext(ctx, "SELECT "+artisanColumns+" FROM artisans a WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetArtisanByName(ctx context.Context, name string) (*models.Artisan, error) {
	a, err := scanArtisan(s.DB.QueryRowContext(ctx, "SELECT "+artisanColumns+" FROM artisans a WHERE a.name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateArtisan(ctx context.Context, a *models.Artisan) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.VerificationStatus == "" {
		a.VerificationStatus = models.VerificationPending
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO artisans (id, name, bio, location, specialization, contact_info, verification_status, rating, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Bio, a.Location, encodeSet(a.Specialization), a.ContactInfo, a.VerificationStatus, a.Rating, a.Active, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert artisan: %w", err)
	}
	return nil
}

func (s *Store) UpdateArtisan(ctx context.Context, a *models.Artisan) error {
	a.UpdatedAt = s.now()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE artisans SET name = ?, bio = ?, location = ?, specialization = ?, contact_info = ?, verification_status = ?,
			rating = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, a.Bio, a.Location, encodeSet(a.Specialization), a.ContactInfo, a.VerificationStatus, a.Rating, a.Active, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update artisan: %w", err)
	}
	return expectRow(res)
}

func (s *Store) SetArtisanActive(ctx context.Context, id string, active bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE artisans SET is_active = ?, updated_at = ? WHERE id = ?`, active, s.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
