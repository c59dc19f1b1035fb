package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/transporttn/busline-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, phone, role, status,
	license_number, city, assigned_bus_id, created_at, updated_at`

// Create inserts a new user and returns it with generated fields populated
func (r *UserRepository) Create(user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	query := `
		INSERT INTO users (id, name, email, password_hash, phone, role, status,
			license_number, city, assigned_bus_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Phone,
		user.Role, user.Status, user.LicenseNumber, user.City, user.AssignedBusID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email, returning nil when absent
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	err := r.db.Get(&user, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by id, returning nil when absent
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	err := r.db.Get(&user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// List returns all users, newest first
func (r *UserRepository) List() ([]models.User, error) {
	var users []models.User
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC`, userColumns)
	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountByRole returns how many users hold the given role
func (r *UserRepository) CountByRole(role models.UserRole) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users WHERE role = $1`, role)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

// ListByRole returns all users with the given role
func (r *UserRepository) ListByRole(role models.UserRole) ([]models.User, error) {
	var users []models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 ORDER BY name`, userColumns)
	if err := r.db.Select(&users, query, role); err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return users, nil
}

// Update overwrites the mutable fields of a user
func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, role = $5, status = $6,
			license_number = $7, city = $8, assigned_bus_id = $9,
			password_hash = $10, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(query,
		user.ID, user.Name, user.Email, user.Phone, user.Role, user.Status,
		user.LicenseNumber, user.City, user.AssignedBusID, user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// DeleteAll removes every user. Used by the administrative reset.
func (r *UserRepository) DeleteAll() error {
	if _, err := r.db.Exec(`DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}
