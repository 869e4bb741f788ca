package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

// CreateInput carries the fields of a task creation request.
type CreateInput struct {
	Title       string
	Description string
	Status      string
	DueDate     *time.Time
}

// UpdateInput carries a partial task update. Nil means unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
}

// UseCase orchestrates task CRUD. Every method takes the authenticated
// user's id explicitly; the repository scopes all queries to it, so a task
// owned by another user behaves exactly like a missing one.
type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Task, error) {
	status := input.Status
	if status == "" {
		status = domain.TaskStatusPending
	}

	task := &domain.Task{
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
	}
	return uc.tasks.Create(ctx, task)
}

func (uc *UseCase) List(ctx context.Context, ownerID, status string, limit, offset int) ([]domain.Task, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{
		OwnerID: ownerID,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	})
}

func (uc *UseCase) Get(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id, ownerID)
}

func (uc *UseCase) Update(ctx context.Context, id, ownerID string, input UpdateInput) (*domain.Task, error) {
	return uc.tasks.UpdateFields(ctx, id, ownerID, repository.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
	})
}

func (uc *UseCase) Delete(ctx context.Context, id, ownerID string) error {
	return uc.tasks.Delete(ctx, id, ownerID)
}
