package transport

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/taskforge/backend/domain"
)

const (
	minPasswordLen    = 8
	maxTitleLen       = 200
	maxDescriptionLen = 2000
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

// ValidationError reports a request field that failed schema validation,
// before the request ever reaches the core.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	r.FullName = strings.TrimSpace(r.FullName)

	if !emailPattern.MatchString(r.Email) {
		return invalid("email", "must be a valid email address")
	}
	if !usernamePattern.MatchString(r.Username) {
		return invalid("username", "must be 3-30 alphanumeric or underscore characters")
	}
	if len(r.Password) < minPasswordLen {
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return invalid("credentials", "email and password are required")
	}
	return nil
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

func (r *ResendVerificationRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if !emailPattern.MatchString(r.Email) {
		return invalid("email", "must be a valid email address")
	}
	return nil
}

type ProfileUpdateRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

func (r *ProfileUpdateRequest) Validate() error {
	if r.Username != nil && !usernamePattern.MatchString(*r.Username) {
		return invalid("username", "must be 3-30 alphanumeric or underscore characters")
	}
	return nil
}

type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`

	dueDate *time.Time
}

func (r *TaskCreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" || len(r.Title) > maxTitleLen {
		return invalid("title", fmt.Sprintf("must be 1-%d characters", maxTitleLen))
	}
	if len(r.Description) > maxDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if r.Status != "" && !domain.ValidTaskStatus(r.Status) {
		return invalid("status", "must be pending, in-progress or completed")
	}

	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return err
	}
	r.dueDate = due
	return nil
}

// ParsedDueDate returns the parsed due date. Validate must have been called.
func (r *TaskCreateRequest) ParsedDueDate() *time.Time {
	return r.dueDate
}

type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`

	dueDate *time.Time
}

func (r *TaskUpdateRequest) Validate() error {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		if trimmed == "" || len(trimmed) > maxTitleLen {
			return invalid("title", fmt.Sprintf("must be 1-%d characters", maxTitleLen))
		}
		r.Title = &trimmed
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLen))
	}
	if r.Status != nil && !domain.ValidTaskStatus(*r.Status) {
		return invalid("status", "must be pending, in-progress or completed")
	}
	if r.DueDate != nil {
		due, err := parseDueDate(*r.DueDate)
		if err != nil {
			return err
		}
		r.dueDate = due
	}
	return nil
}

// ParsedDueDate returns the parsed due date when one was supplied.
func (r *TaskUpdateRequest) ParsedDueDate() *time.Time {
	return r.dueDate
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, invalid("due_date", "must be an RFC 3339 timestamp")
	}
	if parsed.Before(time.Now()) {
		return nil, invalid("due_date", "must not be in the past")
	}
	return &parsed, nil
}
