package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/models"
	pkgauth "github.com/lamarea/storefront/pkg/auth"
	pkglogger "github.com/lamarea/storefront/pkg/logger"
)

// UserRepository defines the persistence operations the throttle needs. Every
// throttle transition is a single atomic statement on the user row.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int, *time.Time, error)
	ResetThrottle(ctx context.Context, id string) error
	ClearExpiredLock(ctx context.Context, id string) error
	TouchLoginAttempt(ctx context.Context, id string) error
}

// AuthService decides, per login attempt, whether to accept, reject with
// remaining-attempts feedback, or reject with lockout feedback, gating on
// email verification before any password check.
type AuthService struct {
	repo              UserRepository
	tm                *auth.TokenManager
	verificationSvc   *EmailVerificationService
	logger            *slog.Logger
	auditLogger       *pkglogger.AuditLogger
	maxFailedAttempts int
	lockoutDuration   time.Duration
}

func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	verificationSvc *EmailVerificationService,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	maxFailedAttempts int,
	lockoutDuration time.Duration,
) *AuthService {
	return &AuthService{
		repo:              repo,
		tm:                tm,
		verificationSvc:   verificationSvc,
		logger:            logger,
		auditLogger:       auditLogger,
		maxFailedAttempts: maxFailedAttempts,
		lockoutDuration:   lockoutDuration,
	}
}

// PublicUser is the user projection returned to clients
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResult carries the session token and the public user projection
type LoginResult struct {
	Token string
	User  *PublicUser
}

// Login runs the throttle state machine for one attempt. Checks run in order
// and the first refusal wins: unknown email, unverified email, active
// lockout, then the password itself.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Burn a bcrypt comparison so timing matches the wrong-password path
			_ = pkgauth.ComparePassword(pkgauth.DummyHash, password)
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, &models.LoginDenied{Kind: models.LoginKindInvalidCredentials, Field: "email"}
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Verification gate comes before any password evaluation
	if !user.EmailVerified {
		if err := s.repo.TouchLoginAttempt(ctx, user.ID); err != nil {
			s.logger.Error("failed to stamp login attempt", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "email_not_verified",
			Success:       false,
		})
		return nil, &models.LoginDenied{
			Kind:              models.LoginKindVerificationRequired,
			Field:             "email",
			NeedsVerification: true,
		}
	}

	now := time.Now()

	if user.Locked(now) {
		// Inside the lockout window nothing mutates the counter
		if err := s.repo.TouchLoginAttempt(ctx, user.ID); err != nil {
			s.logger.Error("failed to stamp login attempt", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, &models.LoginDenied{
			Kind:       models.LoginKindAccountLocked,
			Field:      "general",
			LockoutEnd: user.AccountLockedUntil,
		}
	}

	if user.AccountLockedUntil != nil {
		// Lockout expired: the penalty was served, so the stale counter is
		// cleared rather than re-evaluated (which would re-lock on the next
		// single failure).
		if err := s.repo.ClearExpiredLock(ctx, user.ID); err != nil {
			s.logger.Error("failed to clear expired lock", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.recordFailure(ctx, user, ipAddress)
	}

	if err := s.repo.ResetThrottle(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset throttle", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tm.GenerateSessionToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{
		Token: token,
		User:  &PublicUser{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

// recordFailure applies the wrong-password transition: one atomic increment
// that locks the account when the threshold is crossed.
func (s *AuthService) recordFailure(ctx context.Context, user *models.User, ipAddress string) error {
	lockUntil := time.Now().Add(s.lockoutDuration)

	attempts, lockedUntil, err := s.repo.RecordFailedAttempt(ctx, user.ID, s.maxFailedAttempts, lockUntil)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if attempts >= s.maxFailedAttempts && lockedUntil != nil {
		s.auditLogger.LogAccountLockout(user.ID, ipAddress, *lockedUntil)
		return &models.LoginDenied{
			Kind:       models.LoginKindAccountLocked,
			Field:      "password",
			LockoutEnd: lockedUntil,
		}
	}

	remaining := s.maxFailedAttempts - attempts
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        user.ID,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
		Success:       false,
	})

	return &models.LoginDenied{
		Kind:              models.LoginKindInvalidCredentials,
		Field:             "password",
		RemainingAttempts: &remaining,
	}
}

// Register creates an unverified account and sends the verification email.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, models.ErrBadRequest
	}
	if name == "" {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.verificationSvc != nil {
		if err := s.verificationSvc.SendVerificationEmail(ctx, created.ID, created.Email); err != nil {
			// Account exists; the user can still request a resend
			s.logger.Error("failed to send verification email",
				slog.String("user_id", created.ID), slog.Any("error", err))
		}
	}

	s.logger.Info("user registered", slog.String("user_id", created.ID))
	s.auditLogger.LogAccountAction("user_registered", created.ID, "", nil)

	return created, nil
}

// Me returns the public projection for an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &PublicUser{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}
