package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx so repositories can
// participate in caller-managed transactions.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const userSelectColumns = `id, username, email, password_hash, is_confirmed, refresh_token, created_at, updated_at`

type UserRepository struct {
	db dbExecutor
}

func NewUserRepository(db dbExecutor) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_confirmed, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsConfirmed,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE email = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByEmailForUpdate locks the user row for the duration of the enclosing
// transaction. The refresh rotation compare-then-overwrite sequence depends
// on this lock to serialize concurrent rotations for the same user.
func (r *UserRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userSelectColumns + `
		FROM users WHERE email = ? FOR UPDATE
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			username = ?,
			email = ?,
			password_hash = ?,
			is_confirmed = ?,
			refresh_token = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsConfirmed,
		user.RefreshToken,
		user.UpdatedAt,
		user.ID,
	)
	return err
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID uint64, token sql.NullString) error {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, token, time.Now(), userID)
	return err
}

func (r *UserRepository) SetConfirmed(ctx context.Context, userID uint64) error {
	query := `UPDATE users SET is_confirmed = 1, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}

func (r *UserRepository) scanUser(row *sql.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsConfirmed,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
