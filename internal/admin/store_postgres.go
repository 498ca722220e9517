package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campreg/pkg/platform/sentinel"
)

// PostgresStore persists admin accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const adminColumns = `id, name, bank_card_number, bank_card_owner, bank_name, phone_number, telegram_chat_id, secret_hash`

func (s *PostgresStore) Save(ctx context.Context, admin Admin) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			bank_card_number = EXCLUDED.bank_card_number,
			bank_card_owner = EXCLUDED.bank_card_owner,
			bank_name = EXCLUDED.bank_name,
			phone_number = EXCLUDED.phone_number,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			secret_hash = EXCLUDED.secret_hash
	`
	_, err := s.db.ExecContext(ctx, query,
		admin.ID, admin.Name, admin.BankCardNumber, admin.BankCardOwner,
		admin.BankName, admin.PhoneNumber, admin.TelegramChatID, admin.SecretHash)
	if err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (Admin, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (Admin, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE name = $1`, name))
}

func (s *PostgresStore) List(ctx context.Context) ([]Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.BankCardNumber, &a.BankCardOwner,
			&a.BankName, &a.PhoneNumber, &a.TelegramChatID, &a.SecretHash); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) scanOne(row *sql.Row) (Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Name, &a.BankCardNumber, &a.BankCardOwner,
		&a.BankName, &a.PhoneNumber, &a.TelegramChatID, &a.SecretHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Admin{}, fmt.Errorf("find admin: %w", err)
	}
	return a, nil
}
