package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campreg/internal/catalog/models"
	"campreg/pkg/platform/sentinel"
)

// PostgresStore reads the catalog from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListChurches(ctx context.Context) ([]models.Church, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, placeholder FROM churches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list churches: %w", err)
	}
	defer rows.Close()

	var out []models.Church
	for rows.Next() {
		var c models.Church
		if err := rows.Scan(&c.ID, &c.Name, &c.Placeholder); err != nil {
			return nil, fmt.Errorf("scan church: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListCamps(ctx context.Context) ([]models.Camp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date, capacity FROM camps ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("list camps: %w", err)
	}
	defer rows.Close()

	var out []models.Camp
	for rows.Next() {
		var c models.Camp
		if err := rows.Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Capacity); err != nil {
			return nil, fmt.Errorf("scan camp: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		prices, err := s.listPrices(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Prices = prices
	}
	return out, nil
}

func (s *PostgresStore) listPrices(ctx context.Context, campID uuid.UUID) ([]models.Price, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, total_value FROM prices WHERE camp_id = $1 ORDER BY start_date`,
		campID)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var out []models.Price
	for rows.Next() {
		var p models.Price
		if err := rows.Scan(&p.ID, &p.StartDate, &p.EndDate, &p.TotalValue); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind FROM payment_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list payment types: %w", err)
	}
	defer rows.Close()

	var out []models.PaymentType
	for rows.Next() {
		var pt models.PaymentType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Kind); err != nil {
			return nil, fmt.Errorf("scan payment type: %w", err)
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindChurch(ctx context.Context, id uuid.UUID) (models.Church, error) {
	var c models.Church
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, placeholder FROM churches WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Placeholder)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Church{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Church{}, fmt.Errorf("find church: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindCamp(ctx context.Context, id uuid.UUID) (models.Camp, error) {
	var c models.Camp
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, capacity FROM camps WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Camp{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Camp{}, fmt.Errorf("find camp: %w", err)
	}
	prices, err := s.listPrices(ctx, c.ID)
	if err != nil {
		return models.Camp{}, err
	}
	c.Prices = prices
	return c, nil
}

func (s *PostgresStore) FindPaymentType(ctx context.Context, id uuid.UUID) (models.PaymentType, error) {
	var pt models.PaymentType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind FROM payment_types WHERE id = $1`, id).
		Scan(&pt.ID, &pt.Name, &pt.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentType{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.PaymentType{}, fmt.Errorf("find payment type: %w", err)
	}
	return pt, nil
}
