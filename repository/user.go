package repository

import (
	"context"

	"github.com/taskforge/backend/domain"
)

// UserPatch carries the mutable profile fields. Nil pointers are left untouched.
type UserPatch struct {
	Username *string
	FullName *string
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.FullName == nil
}

type UserRepository interface {
	// Create inserts a new user. Uniqueness of email and username is enforced
	// by the store; a duplicate surfaces as domain.ErrEmailTaken or
	// domain.ErrUsernameTaken depending on the colliding field.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByUsernameExcluding looks up a username while ignoring the record
	// identified by excludedID, used for update-time collision checks.
	GetByUsernameExcluding(ctx context.Context, username, excludedID string) (*domain.User, error)
	// UpdateFields applies the non-nil patch fields and restamps updated_at.
	// An empty patch is a plain read-back without restamping.
	UpdateFields(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	// MarkVerified flips is_verified for the given email. Re-marking an
	// already verified user succeeds.
	MarkVerified(ctx context.Context, email string) error
	Delete(ctx context.Context, id string) error
}
