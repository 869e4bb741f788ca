package services

import (
	"context"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/infrastructure/outbox"
	"github.com/taskforge/backend/usecase"
)

// OutboxMailer adapts the mail dispatcher to the use-case mailer port.
type OutboxMailer struct {
	dispatcher *MailDispatcher
}

func NewOutboxMailer(dispatcher *MailDispatcher) *OutboxMailer {
	return &OutboxMailer{dispatcher: dispatcher}
}

func (m *OutboxMailer) SendVerification(ctx context.Context, toEmail, username, token string) error {
	if m.dispatcher == nil || toEmail == "" {
		return domain.ErrInvalidPayload
	}
	return m.dispatcher.Dispatch(ctx, outbox.Message{
		Email:    toEmail,
		Username: username,
		Token:    token,
	})
}

var _ usecase.VerificationMailer = (*OutboxMailer)(nil)
