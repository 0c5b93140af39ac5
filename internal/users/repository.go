package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchbook/stitchbook/internal/platform/db"
	"github.com/stitchbook/stitchbook/internal/shared"
)

const userColumns = `id, username, password_hash, role, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by login name.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// CreateUser inserts user and returns it with the generated id.
func (r *Repository) CreateUser(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, user.Username, user.PasswordHash, user.Role)
	created, err := scanUser(row)
	if err != nil {
		return User{}, mapUserError(err)
	}
	return created, nil
}

// UpdateUser stores role and password hash.
func (r *Repository) UpdateUser(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, password_hash = $3 WHERE id = $1`,
		user.ID, user.Role, user.PasswordHash)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountByRole counts accounts holding role.
func (r *Repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func mapUserError(err error) error {
	mapped := db.MapError(err)
	if errors.Is(mapped, shared.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrUsernameTaken, mapped)
	}
	return mapped
}

var _ RepositoryPort = (*Repository)(nil)
