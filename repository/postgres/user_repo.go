package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, full_name, is_active, is_verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, email, username, password_hash, full_name, is_active, is_verified)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.IsActive,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return translateUniqueViolation(err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByUsernameExcluding(ctx context.Context, username, excludedID string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 AND id <> $2`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, username, excludedID))
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	if patch.Username != nil {
		args = append(args, *patch.Username)
		set = append(set, fmt.Sprintf("username = $%d", len(args)))
	}
	if patch.FullName != nil {
		args = append(args, *patch.FullName)
		set = append(set, fmt.Sprintf("full_name = $%d", len(args)))
	}

	query := fmt.Sprintf(`
	UPDATE users SET %s
	WHERE id = $1
	RETURNING %s`, strings.Join(set, ", "), userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return user, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, email string) error {
	const query = `
	UPDATE users
	SET is_verified = TRUE, updated_at = NOW()
	WHERE email = $1
	`
	tag, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// translateUniqueViolation maps a unique-index violation to the domain
// conflict naming the colliding field. The indexes are the enforcement point
// for email/username uniqueness; there is no pre-insert check to race against.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return domain.ErrEmailTaken
	case strings.Contains(pgErr.ConstraintName, "username"):
		return domain.ErrUsernameTaken
	default:
		return domain.WrapError(domain.ErrCodeConflict, "duplicate record", err)
	}
}
