package store

import (
	"context"
	"database/sql"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalProducts    int
	ActiveProducts   int
	InactiveProducts int
	TotalCategories  int
	TotalArtisans    int
	TotalOrders      int
	OrdersByStatus   map[models.OrderStatus]int
	Revenue          decimal.Decimal // sum of totals, cancelled orders excluded
	ProductOrders    []ProductOrderCount
	RecentOrders     []models.Order
}

type ProductOrderCount struct {
	ProductID  string
	Name       string
	OrderCount int
}

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[models.OrderStatus]int),
	}

	// 1. Product counts
	err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END), 0) FROM products").
		Scan(&stats.TotalProducts, &stats.ActiveProducts)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	stats.InactiveProducts = stats.TotalProducts - stats.ActiveProducts

	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&stats.TotalCategories); err != nil {
		return nil, err
	}
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM artisans").Scan(&stats.TotalArtisans); err != nil {
		return nil, err
	}

	// 2. Orders by status and revenue.
	// Totals are decimal strings, so they are summed here rather than in SQL.
	if err := s.ordersByStatus(ctx, stats); err != nil {
		return nil, err
	}

	// 3. Orders per product
	if err := s.productOrderCounts(ctx, stats); err != nil {
		return nil, err
	}

	// 4. Recent orders
	recent, err := s.ListOrders(ctx, OrderFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	stats.RecentOrders = recent

	return stats, nil
}

func (s *Store) ordersByStatus(ctx context.Context, stats *DashboardStats) error {
	rows, err := s.DB.QueryContext(ctx, "SELECT status, total_amount FROM orders")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.OrderStatus
			total  sql.NullString
		)
		if err := rows.Scan(&status, &total); err != nil {
			return err
		}
		stats.TotalOrders++
		stats.OrdersByStatus[status]++
		if status == models.OrderStatusCancelled || !total.Valid {
			continue
		}
		if d, err := decimal.NewFromString(total.String); err == nil {
			stats.Revenue = stats.Revenue.Add(d)
		}
	}
	return rows.Err()
}

func (s *Store) productOrderCounts(ctx context.Context, stats *DashboardStats) error {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.id, p.name, COUNT(o.id) AS order_count
		FROM products p
		LEFT JOIN orders o ON p.id = o.product_id
		GROUP BY p.id
		HAVING order_count > 0
		ORDER BY order_count DESC, p.name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var poc ProductOrderCount
		if err := rows.Scan(&poc.ProductID, &poc.Name, &poc.OrderCount); err != nil {
			return err
		}
		stats.ProductOrders = append(stats.ProductOrders, poc)
	}
	return rows.Err()
}
