package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/security"
	"github.com/taskforge/backend/repository"
	"github.com/taskforge/backend/usecase"
)

// RegisterInput carries the fields of a registration request. The transport
// layer has already validated formats and lengths.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// ProfileUpdate carries the owner-mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username *string
	FullName *string
}

// UseCase orchestrates registration, login, email verification and profile
// management.
type UseCase struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	hasher *security.PasswordHasher
	codec  *security.TokenCodec
	mailer usecase.VerificationMailer
	logger *zap.Logger
}

func New(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	hasher *security.PasswordHasher,
	codec *security.TokenCodec,
	mailer usecase.VerificationMailer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tasks:  tasks,
		hasher: hasher,
		codec:  codec,
		mailer: mailer,
		logger: logger,
	}
}

// Register creates a new unverified, active account and requests a
// verification email. Email/username uniqueness is enforced by the store's
// unique indexes; a duplicate key surfaces as the conflict error naming the
// colliding field. A failed email dispatch is logged and swallowed: losing a
// convenience email must not block account creation.
func (uc *UseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(input.Email),
		Username:     input.Username,
		PasswordHash: hash,
		FullName:     input.FullName,
		IsActive:     true,
		IsVerified:   false,
	}

	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.requestVerificationEmail(ctx, user.Email, user.Username)

	return user, nil
}

// Login authenticates by email and password and issues a session token.
// Unknown email and wrong password fail with the identical error; inactive
// accounts are reported distinctly.
func (uc *UseCase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !uc.hasher.Verify(password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.CanLogin() {
		return "", nil, domain.ErrAccountInactive
	}

	token, err := uc.codec.IssueSession(user.ID, user.Email)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrCodeInternal, "failed to issue session token", err)
	}
	return token, user, nil
}

// VerifyEmail marks the account behind a verification token as verified.
// The operation is idempotent: re-presenting a still-valid token for an
// already verified account succeeds without destructive effect.
func (uc *UseCase) VerifyEmail(ctx context.Context, token string) error {
	email, err := uc.codec.DecodeVerification(token)
	if err != nil {
		return domain.ErrInvalidToken
	}

	if err := uc.users.MarkVerified(ctx, email); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	return nil
}

// ResendVerification issues a fresh token and sends it to a not-yet-verified
// account.
func (uc *UseCase) ResendVerification(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.ErrAlreadyVerified
	}

	token, err := uc.codec.IssueVerification(user.Email)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "failed to issue verification token", err)
	}
	if err := uc.mailer.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "failed to send verification email", err)
	}
	return nil
}

// GetProfile returns the account record of the authenticated user.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile applies the supplied profile fields. A username change
// collides like registration does.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	if update.Username != nil {
		if _, err := uc.users.GetByUsernameExcluding(ctx, *update.Username, userID); err == nil {
			return nil, domain.ErrUsernameTaken
		} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, err
		}
	}

	return uc.users.UpdateFields(ctx, userID, repository.UserPatch{
		Username: update.Username,
		FullName: update.FullName,
	})
}

// DeleteProfile removes the account and everything it owns. Tasks go first:
// a crash between the two steps leaves a user without tasks rather than
// orphaned tasks without a user.
func (uc *UseCase) DeleteProfile(ctx context.Context, userID string) error {
	removed, err := uc.tasks.DeleteAllForOwner(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.users.Delete(ctx, userID); err != nil {
		return err
	}

	uc.logger.Info("account deleted",
		zap.String("user_id", userID),
		zap.Int64("tasks_removed", removed))
	return nil
}

func (uc *UseCase) requestVerificationEmail(ctx context.Context, email, username string) {
	if uc.mailer == nil {
		return
	}
	token, err := uc.codec.IssueVerification(email)
	if err != nil {
		uc.logger.Error("failed to issue verification token", zap.Error(err))
		return
	}
	if err := uc.mailer.SendVerification(ctx, email, username, token); err != nil {
		uc.logger.Error("failed to send verification email",
			zap.String("email", email),
			zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
