package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"campreg/internal/registration/models"
	"campreg/pkg/platform/sentinel"
)

// PostgresStore persists registrations in PostgreSQL. Camp and price ID lists
// are stored as JSONB alongside the row; the service never queries inside
// price lists, and camp membership checks go through the camp_ids index.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const regColumns = `id, first_name, last_name, date_of_birth, city, phone, church_id,
	owner_id, admin_id, camp_ids, price_ids, status, payment_type_id, artifact_path,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, reg models.Registration, limits []CampLimit) error {
	campIDs, priceIDs, err := marshalIDs(reg)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	// Capacity checks must be atomic with the insert: a per-camp advisory
	// lock serializes competing submissions for the same camp without
	// locking the table. Locks are taken in a fixed order to avoid
	// deadlocking two submissions sharing camps.
	limits = slices.SortedFunc(slices.Values(limits), func(a, b CampLimit) int {
		return bytes.Compare(a.CampID[:], b.CampID[:])
	})
	for _, limit := range limits {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			limit.CampID.String()); err != nil {
			return fmt.Errorf("lock camp: %w", err)
		}
		var taken int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM registrations
			 WHERE status <> $1 AND camp_ids @> $2`,
			models.StatusRejected, jsonArray(limit.CampID)).Scan(&taken); err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if taken >= limit.Capacity {
			return CampFullError{CampID: limit.CampID}
		}
	}

	query := `
		INSERT INTO registrations (` + regColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.ExecContext(ctx, query,
		reg.ID, reg.FirstName, reg.LastName, reg.DateOfBirth, reg.City, reg.Phone,
		reg.ChurchID, reg.OwnerID, reg.AdminID, campIDs, priceIDs, reg.Status,
		reg.PaymentTypeID, reg.ArtifactPath, reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1`, id)
	reg, err := scanRegistration(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registration{}, sentinel.ErrNotFound
	}
	return reg, err
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Registration, error) {
	return s.query(ctx, `SELECT `+regColumns+` FROM registrations ORDER BY created_at`)
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, lastName string, dateOfBirth time.Time) ([]models.Registration, error) {
	return s.query(ctx,
		`SELECT `+regColumns+` FROM registrations
		 WHERE lower(last_name) = lower($1) AND date_of_birth = $2
		 ORDER BY created_at`,
		lastName, dateOfBirth)
}

func (s *PostgresStore) Update(ctx context.Context, reg models.Registration) error {
	campIDs, priceIDs, err := marshalIDs(reg)
	if err != nil {
		return err
	}
	query := `
		UPDATE registrations SET
			first_name = $2, last_name = $3, date_of_birth = $4, city = $5,
			phone = $6, church_id = $7, owner_id = $8, admin_id = $9,
			camp_ids = $10, price_ids = $11, status = $12, payment_type_id = $13,
			artifact_path = $14, updated_at = $15
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		reg.ID, reg.FirstName, reg.LastName, reg.DateOfBirth, reg.City, reg.Phone,
		reg.ChurchID, reg.OwnerID, reg.AdminID, campIDs, priceIDs, reg.Status,
		reg.PaymentTypeID, reg.ArtifactPath, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegistration(scan func(...any) error) (models.Registration, error) {
	var (
		reg      models.Registration
		campIDs  []byte
		priceIDs []byte
	)
	err := scan(&reg.ID, &reg.FirstName, &reg.LastName, &reg.DateOfBirth, &reg.City,
		&reg.Phone, &reg.ChurchID, &reg.OwnerID, &reg.AdminID, &campIDs, &priceIDs,
		&reg.Status, &reg.PaymentTypeID, &reg.ArtifactPath, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return models.Registration{}, err
	}
	if err := json.Unmarshal(campIDs, &reg.CampIDs); err != nil {
		return models.Registration{}, fmt.Errorf("unmarshal camp ids: %w", err)
	}
	if err := json.Unmarshal(priceIDs, &reg.PriceIDs); err != nil {
		return models.Registration{}, fmt.Errorf("unmarshal price ids: %w", err)
	}
	return reg, nil
}

func marshalIDs(reg models.Registration) (campIDs, priceIDs []byte, err error) {
	campIDs, err = json.Marshal(reg.CampIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal camp ids: %w", err)
	}
	priceIDs, err = json.Marshal(reg.PriceIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal price ids: %w", err)
	}
	return campIDs, priceIDs, nil
}

func jsonArray(id uuid.UUID) []byte {
	b, _ := json.Marshal([]uuid.UUID{id})
	return b
}
