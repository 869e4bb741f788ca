package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskforge/backend/internal/infrastructure/outbox"
)

// VerificationSender is the delivery side of the outbox, implemented by the
// SMTP mail sender.
type VerificationSender interface {
	SendVerification(ctx context.Context, toEmail, username, token string) error
}

// DispatcherConfig controls how frequently the outbox is drained.
type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// MailDispatcher drains the email outbox on a schedule. Messages that keep
// failing past MaxRetries are dropped with a log line; nothing upstream ever
// blocks on delivery.
type MailDispatcher struct {
	store  *outbox.Store
	sender VerificationSender
	logger *zap.Logger
	cron   *cron.Cron
	cfg    DispatcherConfig
}

func NewMailDispatcher(
	store *outbox.Store,
	sender VerificationSender,
	logger *zap.Logger,
	cfg DispatcherConfig,
) *MailDispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	md := &MailDispatcher{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = md.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := md.Drain(ctx); err != nil {
			md.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = md.cron.AddFunc("@hourly", func() {
		if err := md.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
			md.logger.Warn("outbox cleanup failed", zap.Error(err))
		}
	})

	return md
}

// Start launches the cron scheduler.
func (md *MailDispatcher) Start() {
	if md == nil || md.cron == nil {
		return
	}
	md.cron.Start()
	md.logger.Info("mail dispatcher started")
}

// Stop gracefully stops the scheduler.
func (md *MailDispatcher) Stop(ctx context.Context) {
	if md == nil || md.cron == nil {
		return
	}
	stopCtx := md.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	md.logger.Info("mail dispatcher stopped")
}

// Drain attempts delivery of queued messages synchronously.
func (md *MailDispatcher) Drain(ctx context.Context) error {
	if md == nil || md.store == nil {
		return nil
	}

	msgs, err := md.store.GetBatch(md.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if err := md.sender.SendVerification(ctx, msg.Email, msg.Username, msg.Token); err != nil {
			md.logger.Error("failed to deliver verification email",
				zap.String("message_id", msg.ID),
				zap.Error(err))

			msg.Attempts++
			if msg.Attempts >= md.cfg.MaxRetries {
				md.logger.Warn("dropping verification email (max retries reached)",
					zap.String("message_id", msg.ID))
				_ = md.store.Remove(msg)
				continue
			}

			if err := md.store.Remove(msg); err != nil {
				md.logger.Warn("failed to remove outbox message", zap.Error(err))
			}
			if err := md.store.Requeue(msg); err != nil {
				md.logger.Error("failed to requeue outbox message", zap.Error(err))
			}
			continue
		}

		if err := md.store.Remove(msg); err != nil {
			md.logger.Warn("failed to purge delivered message", zap.Error(err))
		}
	}
	return nil
}

// Dispatch attempts immediate delivery and falls back to persisting the
// message for the scheduled drain.
func (md *MailDispatcher) Dispatch(ctx context.Context, msg outbox.Message) error {
	if md == nil || md.store == nil {
		return fmt.Errorf("mail dispatcher not configured")
	}

	if err := md.sender.SendVerification(ctx, msg.Email, msg.Username, msg.Token); err == nil {
		return nil
	} else {
		md.logger.Warn("immediate delivery failed, queueing", zap.Error(err))
	}
	return md.store.Enqueue(msg)
}

// Size returns the number of queued messages.
func (md *MailDispatcher) Size() int {
	if md == nil || md.store == nil {
		return 0
	}
	size, err := md.store.Size()
	if err != nil {
		return 0
	}
	return size
}
