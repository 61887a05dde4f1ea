package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lamarea/storefront/internal/database"
	"github.com/lamarea/storefront/internal/models"
)

const userColumns = `id, email, password_hash, name, email_verified, failed_login_attempts, account_locked_until, last_login_attempt, created_at, updated_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lockedUntil, lastAttempt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.EmailVerified, &user.FailedLoginAttempts,
		&lockedUntil, &lastAttempt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.AccountLockedUntil = lockedUntil
	user.LastLoginAttempt = lastAttempt

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password_hash, name, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns + `
	`

	created, err := scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

// RecordFailedAttempt increments the failed-attempt counter in a single atomic
// statement and sets the lockout expiry when the new count reaches maxAttempts.
// Returns the post-increment counter and the lock expiry (nil if not locked).
// The read-then-write pattern would lose updates under concurrent attempts;
// the CASE expression keeps the transition atomic.
func (r *UserRepository) RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
	query := `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			account_locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3
				ELSE account_locked_until
			END,
			last_login_attempt = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts, account_locked_until
	`

	var attempts int
	var lockedUntil *time.Time
	err := r.db.Pool.QueryRow(ctx, query, id, maxAttempts, lockUntil).Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}

	return attempts, lockedUntil, nil
}

// ResetThrottle clears the failed-attempt counter and any lockout after a
// successful login.
func (r *UserRepository) ResetThrottle(ctx context.Context, id string) error {
	query := `
		UPDATE users SET
			failed_login_attempts = 0,
			account_locked_until = NULL,
			last_login_attempt = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearExpiredLock resets the counter and lock for an account whose lockout
// window has passed. The WHERE guard makes the reset a no-op if another
// request already cleared it or a fresh lock was set in the meantime.
func (r *UserRepository) ClearExpiredLock(ctx context.Context, id string) error {
	query := `
		UPDATE users SET
			failed_login_attempts = 0,
			account_locked_until = NULL,
			updated_at = NOW()
		WHERE id = $1 AND account_locked_until IS NOT NULL AND account_locked_until <= NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// TouchLoginAttempt stamps last_login_attempt without changing throttle state
// (used for attempts refused before the password check).
func (r *UserRepository) TouchLoginAttempt(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_attempt = NOW(), updated_at = NOW() WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
