package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medminder/services/channels"
	"medminder/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const maxStartAttempts = 5

// ReminderWorker consumes queued channel deliveries.
type ReminderWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewReminderWorker builds the worker. Provider calls use the same per-call
// timeout as inline delivery.
func NewReminderWorker(
	redisOpts asynq.RedisClientOpt,
	concurrency int,
	sms channels.SMSSender,
	email channels.EmailSender,
	timeout time.Duration,
	logger *zap.Logger,
) *ReminderWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueReminders: 1,
			},
			Logger:   logger.Sugar(),
			LogLevel: asynq.WarnLevel,
			IsFailure: func(err error) bool {
				return !errors.Is(err, channels.ErrNotConfigured)
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReminderSMS, HandleSMSTask(sms, timeout, logger))
	mux.HandleFunc(tasks.TypeReminderEmail, HandleEmailTask(email, timeout, logger))

	return &ReminderWorker{srv: srv, mux: mux, logger: logger}
}

// Start begins processing in the background, retrying the Redis connection
// with a growing delay.
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reminder worker")
	var err error
	for attempt := 1; attempt <= maxStartAttempts; attempt++ {
		if err = w.srv.Ping(); err == nil {
			break
		}
		w.logger.Warn("Reminder worker cannot reach Redis",
			zap.Int("attempt", attempt), zap.Int("maxAttempts", maxStartAttempts), zap.Error(err))
		if attempt == maxStartAttempts {
			return fmt.Errorf("reminder worker: redis unreachable after %d attempts: %w", maxStartAttempts, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*2) * time.Second):
		}
	}
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("reminder worker: %w", err)
	}
	return nil
}

// Shutdown stops fetching tasks and waits for active handlers.
func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
	w.logger.Info("Reminder worker stopped")
}

// retryable maps a channel error to asynq's retry policy. A channel without
// credentials will not succeed on retry.
func retryable(err error) error {
	if errors.Is(err, channels.ErrNotConfigured) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func HandleSMSTask(sms channels.SMSSender, timeout time.Duration, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task)
		if err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if sms == nil {
			return retryable(channels.ErrNotConfigured)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		sid, err := sms.SendSMS(ctx, p.To, p.Body)
		if err != nil {
			logger.Warn("Queued SMS reminder failed",
				zap.String("notificationId", p.NotificationID), zap.Error(err))
			return retryable(err)
		}
		logger.Info("Queued SMS reminder delivered",
			zap.String("notificationId", p.NotificationID), zap.String("messageId", sid))
		return nil
	}
}

func HandleEmailTask(email channels.EmailSender, timeout time.Duration, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task)
		if err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		if email == nil {
			return retryable(channels.ErrNotConfigured)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err = email.SendEmail(ctx, channels.EmailMessage{
			To:      p.To,
			Subject: p.Subject,
			Text:    p.Body,
			HTML:    p.HTML,
		})
		if err != nil {
			logger.Warn("Queued email reminder failed",
				zap.String("notificationId", p.NotificationID), zap.Error(err))
			return retryable(err)
		}
		logger.Info("Queued email reminder delivered", zap.String("notificationId", p.NotificationID))
		return nil
	}
}
