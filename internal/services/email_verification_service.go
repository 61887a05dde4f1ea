package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamarea/storefront/internal/models"
)

// VerificationRepository defines the interface for verification token storage
type VerificationRepository interface {
	Create(ctx context.Context, v *models.EmailVerification) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailVerification, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// VerificationUserRepository is the slice of user persistence the
// verification flow needs.
type VerificationUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

// EmailVerificationService handles the verify-before-login flow: tokens are
// random, stored hashed, single-use and expiring.
type EmailVerificationService struct {
	verificationRepo VerificationRepository
	userRepo         VerificationUserRepository
	sender           EmailSender
	logger           *slog.Logger
	tokenExpiry      time.Duration
}

func NewEmailVerificationService(
	verificationRepo VerificationRepository,
	userRepo VerificationUserRepository,
	sender EmailSender,
	logger *slog.Logger,
	tokenExpiry time.Duration,
) *EmailVerificationService {
	return &EmailVerificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		sender:           sender,
		logger:           logger,
		tokenExpiry:      tokenExpiry,
	}
}

// hashToken derives the storage form of a plaintext token
func hashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// SendVerificationEmail generates a fresh token (invalidating any pending
// ones for the user) and emails it.
func (s *EmailVerificationService) SendVerificationEmail(ctx context.Context, userID, email string) error {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	plainToken := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.verificationRepo.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("failed to delete pending verification tokens",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	expiresAt := time.Now().Add(s.tokenExpiry)
	v := &models.EmailVerification{
		UserID:    userID,
		TokenHash: hashToken(plainToken),
		ExpiresAt: expiresAt,
	}

	if err := s.verificationRepo.Create(ctx, v); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.sender.SendVerificationEmail(ctx, email, plainToken, expiresAt); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.logger.Info("verification email queued", slog.String("user_id", userID))
	return nil
}

// VerifyEmail consumes a token and marks the user's email as verified.
// Returns the verified user id.
func (s *EmailVerificationService) VerifyEmail(ctx context.Context, plainToken string) (string, error) {
	if plainToken == "" {
		return "", models.ErrUnauthorized
	}

	token, err := s.verificationRepo.GetByTokenHash(ctx, hashToken(plainToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnauthorized
		}
		s.logger.Error("failed to retrieve verification token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if token.Expired(time.Now()) {
		s.logger.Info("verification token expired", slog.String("token_id", token.ID))
		return "", models.ErrUnauthorized
	}

	if err := s.userRepo.MarkEmailVerified(ctx, token.UserID); err != nil {
		s.logger.Error("failed to mark email verified",
			slog.String("user_id", token.UserID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	// Consume all of the user's tokens; verification is single-use
	if err := s.verificationRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		s.logger.Error("failed to delete consumed verification tokens",
			slog.String("user_id", token.UserID), slog.Any("error", err))
	}

	s.logger.Info("email verified", slog.String("user_id", token.UserID))
	return token.UserID, nil
}

// ResendVerification re-issues a token for an unverified account. Quietly
// succeeds for unknown or already-verified emails so responses don't reveal
// which addresses are registered.
func (s *EmailVerificationService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to look up user for resend", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.EmailVerified {
		return nil
	}

	return s.SendVerificationEmail(ctx, user.ID, user.Email)
}

// CleanupExpired removes expired tokens; called by the background janitor.
func (s *EmailVerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.verificationRepo.DeleteExpired(ctx)
}
