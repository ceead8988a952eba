package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/bank-cards/internal/models"
)

const userColumns = `id, username, password_hash, role`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role); err != nil {
		return nil, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d has unknown role %q", user.ID, role)
	}
	user.Role = parsed
	return user, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO bank.users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash, string(user.Role)).Scan(&user.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return models.NewError(models.ErrValidation, "user with this username already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser overwrites username, password hash and role of an existing user
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE bank.users
		SET username = $2, password_hash = $3, role = $4
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, string(user.Role))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return models.NewError(models.ErrValidation, "user with this username already exists")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectAffected(res, models.ErrUserNotFound)
}

// DeleteUser removes a user; owned cards go with it via ON DELETE CASCADE
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectAffected(res, models.ErrUserNotFound)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM bank.users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM bank.users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UserExists reports whether a user with id exists
func (r *Repository) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bank.users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// UsernameExists reports whether username is taken
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bank.users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// ListUsers returns all users ordered by id
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM bank.users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
