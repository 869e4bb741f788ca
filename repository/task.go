package repository

import (
	"context"
	"time"

	"github.com/taskforge/backend/domain"
)

// TaskFilter scopes a listing. OwnerID is mandatory: there is no way to list
// tasks across owners.
type TaskFilter struct {
	OwnerID string
	Status  string
	Limit   int
	Offset  int
}

// TaskPatch carries the mutable task fields. Nil pointers are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// TaskRepository persists tasks. Every operation takes the owning user's id
// and scopes the underlying query to it, so a task owned by someone else is
// indistinguishable from one that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	GetByID(ctx context.Context, id, ownerID string) (*domain.Task, error)
	UpdateFields(ctx context.Context, id, ownerID string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	// DeleteAllForOwner removes every task of the owner and returns the count.
	DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error)
}
