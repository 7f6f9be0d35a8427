package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents an admin account for the directory console.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialized to JSON.
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	Disabled     bool      `json:"disabled"`
}

// UserRepository provides access to admin accounts.
type UserRepository interface {
	// Get returns a single user by ID.
	Get(ctx context.Context, id string) (*User, error)

	// GetByUsername returns a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create inserts a new user. If user.ID is empty, a UUID is generated.
	Create(ctx context.Context, user *User) error

	// UpdatePassword updates a user's password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// TouchLastLogin records a successful login time.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Compile-time interface guard.
var _ UserRepository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a UserRepository. The auth_users table must
// already exist (created by the store migrations).
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// userColumns is the shared SELECT column list for user queries.
const userColumns = `id, username, email, password_hash, role, created_at, last_login, disabled`

func (r *SQLiteUserRepository) Get(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username %q: %w", username, err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = "admin"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_users (id, username, email, password_hash, role, created_at, disabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.CreatedAt, user.Disabled,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth_users SET last_login = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &lastLogin, &u.Disabled,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}
