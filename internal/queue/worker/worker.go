package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zamindar/collegeportal/internal/jobs"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/queue/mailqueue"
)

type MailQueue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error)
}

type Config struct {
	PollTimeout time.Duration // how long each BRPOP blocks
	WorkerID    string
	SendTimeout time.Duration
}

// Worker drains the mail retry queue: jobs land here when the
// synchronous send at registration time failed, and get retried with
// exponential backoff until MaxTries is spent.
type Worker struct {
	cfg    Config
	queue  MailQueue
	mailer mail.Mailer
	log    *slog.Logger
}

func New(cfg Config, queue MailQueue, mailer mail.Mailer, log *slog.Logger) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	return &Worker{
		cfg:    cfg,
		queue:  queue,
		mailer: mailer,
		log:    log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			return nil
		default:
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.log.Error("dequeue error", "err", err)

			// do not spin on a broken connection
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		_ = processed
	}
}

func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)

	if err != nil {
		if errors.Is(err, mailqueue.ErrEmpty) {
			return false, nil
		}

		return false, err
	}

	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	w.log.Info("mail delivered", "job_id", j.ID, "attempt", j.Attempts)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	decoded, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.SendVerificationEmailPayload:
		sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
		defer cancel()

		return w.mailer.SendVerification(sendCtx, mail.VerificationEmail{
			Email: p.Email,
			Name:  p.Name,
			Token: p.Token,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error) {
	j.Attempts++

	if j.Attempts >= j.MaxTries {
		w.log.Error("mail job dropped after max tries",
			"job_id", j.ID, "attempts", j.Attempts, "err", cause)
		return
	}

	delay := ExponentialBackoff(j.Attempts)

	w.log.Warn("mail send failed, requeueing",
		"job_id", j.ID, "attempt", j.Attempts, "retry_in", delay.String(), "err", cause)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// push back immediately so the job survives shutdown
	}

	if err := w.queue.Enqueue(context.WithoutCancel(ctx), j); err != nil {
		w.log.Error("requeue failed, job lost", "job_id", j.ID, "err", err)
	}
}
