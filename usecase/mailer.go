package usecase

import "context"

// VerificationMailer abstracts verification email delivery so use cases stay
// transport-agnostic. Implementations are best-effort: the caller-visible
// result of registration never depends on delivery succeeding.
type VerificationMailer interface {
	SendVerification(ctx context.Context, toEmail, username, token string) error
}
