package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lamarea/storefront/internal/database"
	"github.com/lamarea/storefront/internal/models"
)

// EmailVerificationRepository handles database operations for verification tokens
type EmailVerificationRepository struct {
	db *database.DB
}

func NewEmailVerificationRepository(db *database.DB) *EmailVerificationRepository {
	return &EmailVerificationRepository{db: db}
}

func (r *EmailVerificationRepository) Create(ctx context.Context, v *models.EmailVerification) error {
	v.ID = uuid.New().String()
	v.CreatedAt = time.Now()

	query := `
		INSERT INTO email_verifications (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query, v.ID, v.UserID, v.TokenHash, v.ExpiresAt, v.CreatedAt)
	return database.MapPostgresError(err)
}

func (r *EmailVerificationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailVerification, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM email_verifications WHERE token_hash = $1
	`

	var v models.EmailVerification
	err := r.db.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&v.ID, &v.UserID, &v.TokenHash, &v.ExpiresAt, &v.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &v, nil
}

// DeleteByUserID removes all pending tokens for a user (called before issuing
// a fresh one and after successful verification).
func (r *EmailVerificationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM email_verifications WHERE user_id = $1`

	_, err := r.db.Pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// DeleteExpired removes tokens past their expiry; run by the background janitor.
func (r *EmailVerificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM email_verifications WHERE expires_at <= CURRENT_TIMESTAMP`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
