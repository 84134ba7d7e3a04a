package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/observability"
	"github.com/zamindar/collegeportal/internal/queue/mailqueue"
	"github.com/zamindar/collegeportal/internal/queue/redisclient"
	"github.com/zamindar/collegeportal/internal/queue/worker"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	var transport mail.Mailer

	if cfg.SendGridAPIKey != "" {
		transport = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, cfg.FrontendURL)
	} else {
		log.Warn("SENDGRID_API_KEY not set, verification mails are logged only")
		transport = mail.NewLogMailer(cfg.FrontendURL)
	}

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollTimeout: 2 * time.Second,
		WorkerID:    workerID,
		SendTimeout: 10 * time.Second,
	}, mailqueue.New(rdb.Raw()), transport, log)

	log.Info("mail worker started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
