package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/db"
	httpx "github.com/zamindar/collegeportal/internal/http"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/observability"
	"github.com/zamindar/collegeportal/internal/queue/mailqueue"
	"github.com/zamindar/collegeportal/internal/queue/redisclient"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is optional; skip when no collector is configured
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "collegeportal-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	bootCtx, cancelBoot := config.WithTimeout(10 * time.Second)

	if err := db.EnsureSchema(bootCtx, pool); err != nil {
		log.Error("schema setup failed", "err", err)
		cancelBoot()
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(bootCtx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		cancelBoot()
		os.Exit(1)
	}

	cancelBoot()

	// mail transport: sendgrid in real environments, log-only otherwise,
	// both behind the circuit breaker
	var transport mail.Mailer

	if cfg.SendGridAPIKey != "" {
		transport = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, cfg.FrontendURL)
	} else {
		log.Warn("SENDGRID_API_KEY not set, verification mails are logged only")
		transport = mail.NewLogMailer(cfg.FrontendURL)
	}

	mailer := mail.NewProtectedMailer(transport, mail.ProtectedMailerConfig{})

	// retry queue for failed sends
	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	queue := mailqueue.New(rdb.Raw())

	// set up routers with the log
	router := httpx.NewRouter(log, pool, cfg, mailer, queue)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
