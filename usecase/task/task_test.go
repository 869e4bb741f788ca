package task

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

// fakeTaskRepo mirrors the repository contract: owner scoping on every
// operation, newest-created-first listing, updated_at restamped only on a
// non-empty patch.
type fakeTaskRepo struct {
	tasks map[string]*domain.Task
	seq   int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	r.seq++
	task.CreatedAt = time.Unix(int64(r.seq), 0)
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return task, nil
}

func (r *fakeTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range r.tasks {
		if task.UserID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id, ownerID string) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) UpdateFields(_ context.Context, id, ownerID string, patch repository.TaskPatch) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Empty() {
		clone := *task
		return &clone, nil
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		task.DueDate = &due
	}
	task.UpdatedAt = time.Now()
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id, ownerID string) error {
	task, ok := r.tasks[id]
	if !ok || task.UserID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) DeleteAllForOwner(_ context.Context, ownerID string) (int64, error) {
	var count int64
	for id, task := range r.tasks {
		if task.UserID == ownerID {
			delete(r.tasks, id)
			count++
		}
	}
	return count, nil
}

func TestCreate_DefaultsToPending(t *testing.T) {
	uc := New(newFakeTaskRepo(), nil)

	created, err := uc.Create(context.Background(), "owner-1", CreateInput{Title: "write spec"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, created.Status)
	assert.Equal(t, "owner-1", created.UserID)
}

func TestList_NewestFirstAndStatusFiltered(t *testing.T) {
	uc := New(newFakeTaskRepo(), nil)
	ctx := context.Background()

	first, err := uc.Create(ctx, "owner-1", CreateInput{Title: "first"})
	require.NoError(t, err)
	second, err := uc.Create(ctx, "owner-1", CreateInput{Title: "second"})
	require.NoError(t, err)
	done, err := uc.Create(ctx, "owner-1", CreateInput{Title: "done", Status: domain.TaskStatusCompleted})
	require.NoError(t, err)

	all, err := uc.List(ctx, "owner-1", "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, done.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, first.ID, all[2].ID)

	pending, err := uc.List(ctx, "owner-1", domain.TaskStatusPending, 0, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestCrossOwnerAccessLooksLikeAbsence(t *testing.T) {
	uc := New(newFakeTaskRepo(), nil)
	ctx := context.Background()

	created, err := uc.Create(ctx, "user-a", CreateInput{Title: "private"})
	require.NoError(t, err)

	_, err = uc.Get(ctx, created.ID, "user-b")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	title := "stolen"
	_, err = uc.Update(ctx, created.ID, "user-b", UpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = uc.Delete(ctx, created.ID, "user-b")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	// The owner still sees it untouched.
	got, err := uc.Get(ctx, created.ID, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestUpdate_PartialMergeRestampsOnlyOnChange(t *testing.T) {
	uc := New(newFakeTaskRepo(), nil)
	ctx := context.Background()

	created, err := uc.Create(ctx, "owner-1", CreateInput{Title: "original", Description: "desc"})
	require.NoError(t, err)

	// Empty patch: nothing changes, updated_at included.
	unchanged, err := uc.Update(ctx, created.ID, "owner-1", UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, unchanged.UpdatedAt)
	assert.Equal(t, "original", unchanged.Title)

	// Partial patch: only the supplied field moves.
	status := domain.TaskStatusInProgress
	updated, err := uc.Update(ctx, created.ID, "owner-1", UpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
	assert.Equal(t, "original", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestDelete_RemovesOwnedTask(t *testing.T) {
	uc := New(newFakeTaskRepo(), nil)
	ctx := context.Background()

	created, err := uc.Create(ctx, "owner-1", CreateInput{Title: "temp"})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, created.ID, "owner-1"))

	_, err = uc.Get(ctx, created.ID, "owner-1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
