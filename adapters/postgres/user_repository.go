package postgres

import (
	"context"
	"strings"

	"bhss/domain/core"
	apperrors "bhss/internal/errors"
	"bhss/models"
	"bhss/ports"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, name, role, municipality, school, password_hash, is_active, created_at, updated_at`

// UserRepositoryImpl implements UserRepository on sqlx
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreateUser inserts user, assigning its id and timestamps. Emails are
// stored lower-cased.
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = core.NewID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :name, :role, :municipality, :school, :password_hash, :is_active, :created_at, :updated_at)
	`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.InvalidInput("a user with email " + user.Email + " already exists")
		}
		return apperrors.DatabaseError("failed to create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, userID core.ID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?
	`), userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *UserRepositoryImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?
	`), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// ListUsers returns all users, newest first
func (r *UserRepositoryImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list users", err)
	}
	return users, nil
}

// DeleteUser removes a user account
func (r *UserRepositoryImpl) DeleteUser(ctx context.Context, userID core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return apperrors.DatabaseError("failed to delete user", err)
	}
	return requireAffected(res, "user")
}
