package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

const contactSelectColumns = `id, user_id, first_name, last_name, email, phone_number, birthday, other_info, created_at, updated_at`

type ContactRepository struct {
	db dbExecutor
}

func NewContactRepository(db dbExecutor) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	query := `
		INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birthday, other_info, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Birthday,
		contact.OtherInfo,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	contact.ID = uint64(id)
	return nil
}

func (r *ContactRepository) FindByID(ctx context.Context, userID, contactID uint64) (*entity.Contact, error) {
	query := `
		SELECT ` + contactSelectColumns + `
		FROM contacts WHERE id = ? AND user_id = ?
	`
	contact := &entity.Contact{}
	err := r.scanContact(r.db.QueryRowContext(ctx, query, contactID, userID), contact)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *ContactRepository) FindAll(ctx context.Context, userID uint64) ([]*entity.Contact, error) {
	query := `
		SELECT ` + contactSelectColumns + `
		FROM contacts WHERE user_id = ? ORDER BY id
	`
	return r.queryContacts(ctx, query, userID)
}

// Search matches the query string against first name, last name and email,
// case-insensitively and with partial matching.
func (r *ContactRepository) Search(ctx context.Context, userID uint64, term string) ([]*entity.Contact, error) {
	query := `
		SELECT ` + contactSelectColumns + `
		FROM contacts
		WHERE user_id = ? AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)
		ORDER BY id
	`
	pattern := "%" + term + "%"
	return r.queryContacts(ctx, query, userID, pattern, pattern, pattern)
}

func (r *ContactRepository) Update(ctx context.Context, contact *entity.Contact) error {
	query := `
		UPDATE contacts SET
			first_name = ?,
			last_name = ?,
			email = ?,
			phone_number = ?,
			birthday = ?,
			other_info = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	contact.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Birthday,
		contact.OtherInfo,
		contact.UpdatedAt,
		contact.ID,
		contact.UserID,
	)
	return err
}

func (r *ContactRepository) Delete(ctx context.Context, userID, contactID uint64) (int64, error) {
	query := `DELETE FROM contacts WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, contactID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]*entity.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*entity.Contact
	for rows.Next() {
		contact := &entity.Contact{}
		if err := r.scanContact(rows, contact); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ContactRepository) scanContact(row rowScanner, contact *entity.Contact) error {
	return row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.PhoneNumber,
		&contact.Birthday,
		&contact.OtherInfo,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
}
