package http

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/zamindar/collegeportal/internal/auth"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/http/handlers"
	"github.com/zamindar/collegeportal/internal/http/middlewares"
	"github.com/zamindar/collegeportal/internal/mail"
	"github.com/zamindar/collegeportal/internal/observability"
	"github.com/zamindar/collegeportal/internal/repo/postgres"
)

// NewRouter wires the full HTTP surface. queue may be nil (no mail
// retry path, e.g. in tests without redis).
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, mailer mail.Mailer, queue handlers.MailEnqueuer) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics registry: process/go collectors + our own
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware("collegeportal-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.MaxBodyBytes(8 << 20)) // avatar uploads included

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// avatars are public static assets
	r.Static("/uploads/avatars", filepath.Join(cfg.UploadDir, "avatars"))

	// expose the retry queue backlog when the enqueuer can report it
	if depther, ok := queue.(interface {
		Depth(ctx context.Context) (int64, error)
	}); ok {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "collegeportal",
			Subsystem: "mail",
			Name:      "queue_depth",
			Help:      "Pending deliveries sitting in the redis retry queue.",
		}, func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			depth, err := depther.Depth(ctx)
			if err != nil {
				return -1
			}

			return float64(depth)
		}))
	}

	// wire up repositories and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	transportName := "log"
	if cfg.SendGridAPIKey != "" {
		transportName = "sendgrid"
	}

	instrumentedMailer := mail.NewInstrumentedMailer(mailer, prom, transportName)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, instrumentedMailer, queue, cfg, log)
	usersHandler := handlers.NewUsersHandler(usersRepo, cfg, log)

	authMw := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	// throttle the public auth endpoints per client IP
	publicLimiter := middlewares.NewRateLimiter(20, time.Minute)
	limit := publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	users := r.Group("/users")
	{
		users.POST("/register", limit, authHandler.Register) // multipart form
		users.GET("/verify-email", limit, authHandler.VerifyEmail)
		users.POST("/login", limit, middlewares.RequireJSON(), authHandler.Login)
		users.POST("/refresh-token", limit, middlewares.RequireJSON(), authHandler.Refresh)
		users.POST("/resend-verification", limit, middlewares.RequireJSON(), authHandler.ResendVerification)

		users.GET("/profile", authMw.RequireAuth(), usersHandler.Profile)
	}

	admin := r.Group("/admin", authMw.RequireAuth(), authMw.RequireRole(user.RoleAdmin))
	{
		admin.GET("/users/:id", usersHandler.GetUser)
	}

	return r
}
