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

// OrderFilter narrows ListOrders. Search matches customer name or phone.
type OrderFilter struct {
	Status    models.OrderStatus
	SessionID string
	Search    string
	Limit     int
	Offset    int
}

func (f OrderFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		clauses = append(clauses, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.SessionID != "" {
		clauses = append(clauses, "o.session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Search != "" {
		clauses = append(clauses, "(o.customer_name LIKE ? OR o.customer_phone LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// A missing product still yields the order; display fields fall back to placeholders.
const orderSelect = `
	SELECT o.id, o.session_id, o.product_id, COALESCE(p.name, 'Unknown product'), COALESCE(p.image_url, ''),
		COALESCE(p.price_range, ''), o.customer_name, o.customer_phone, o.customer_address, o.preferred_contact,
		o.status, o.order_notes, o.total_amount, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN products p ON o.product_id = p.id`

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		o            models.Order
		notes, total sql.NullString
	)
	err := row.Scan(&o.ID, &o.SessionID, &o.ProductID, &o.ProductName, &o.ProductImageURL,
		&o.ProductPrice, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress, &o.PreferredContact,
		&o.Status, &notes, &total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	o.Notes = notes.String
	if total.Valid && total.String != "" {
		d, err := decimal.NewFromString(total.String)
		if err != nil {
			return o, fmt.Errorf("order %s: bad total %q: %w", o.ID, total.String, err)
		}
		o.TotalAmount = decimal.NewNullDecimal(d)
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	var total sql.NullString
	if o.TotalAmount.Valid {
		total = sql.NullString{String: o.TotalAmount.Decimal.String(), Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, product_id, customer_name, customer_phone, customer_address,
			preferred_contact, status, order_notes, total_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.SessionID, o.ProductID, o.CustomerName, o.CustomerPhone, o.CustomerAddress,
		o.PreferredContact, o.Status, nullString(o.Notes), total, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(s.DB.QueryRowContext(ctx, orderSelect+" WHERE o.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns matching orders, newest first.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	where, args := f.where()
	query := orderSelect + where + " ORDER BY o.created_at DESC, o.rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) CountOrders(ctx context.Context, f OrderFilter) (int, error) {
	where, args := f.where()
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&count)
	return count, err
}

// UpdateOrderStatus writes the status unconditionally; workflow rules live in the orders service.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, s.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Store) UpdateOrderNotes(ctx context.Context, id, notes string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET order_notes = ?, updated_at = ? WHERE id = ?`, nullString(notes), s.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}
