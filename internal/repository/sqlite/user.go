package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/model"
	"github.com/careblog/careblog/internal/repository"
)

// UserStore implements repository.UserRepository on the shared pool.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, first_name, last_name, email, password_hash, role,
	profile_image, address_line1, city, state, pincode, created_at, updated_at`

// Create inserts a new account. The UNIQUE NOCASE constraint on email is the
// source of truth for duplicate detection; the driver surfaces violations as
// a plain error string, and email is the only UNIQUE index on the table, so
// matching the constraint message is unambiguous.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password_hash, role,
		 profile_image, address_line1, city, state, pincode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImage,
		user.AddressLine1,
		user.City,
		user.State,
		user.Pincode,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("Email already registered")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves an account by email. The NOCASE collation on the
// column makes the comparison case-insensitive without a LOWER() scan.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *UserStore) getUser(ctx context.Context, query, arg string) (*model.User, error) {
	var u model.User
	var role string

	err := s.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.ProfileImage,
		&u.AddressLine1,
		&u.City,
		&u.State,
		&u.Pincode,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	// Rows written by this code always hold a valid role, but the column is
	// free text, so fall back to patient rather than failing the read.
	parsed, err := model.ParseRole(role)
	if err != nil {
		parsed = model.RolePatient
	}
	u.Role = parsed

	return &u, nil
}

// List returns every account, oldest first.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role,
			&u.ProfileImage, &u.AddressLine1, &u.City, &u.State, &u.Pincode,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		parsed, err := model.ParseRole(role)
		if err != nil {
			parsed = model.RolePatient
		}
		u.Role = parsed
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// UpdateProfileImage records the stored image path on the account and
// returns the updated record.
func (s *UserStore) UpdateProfileImage(ctx context.Context, id, imageURL string) (*model.User, error) {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET profile_image = ?, updated_at = ? WHERE id = ?`,
		imageURL, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile image for user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return s.GetByID(ctx, id)
}
