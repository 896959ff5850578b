package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/devocional/internal/config"
	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/handler"
	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/middleware"
	"github.com/iliyamo/devocional/internal/notify"
	"github.com/iliyamo/devocional/internal/queue"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/router"
	"github.com/iliyamo/devocional/internal/service"
	"github.com/iliyamo/devocional/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lg := logger.Setup(config.LoadLogConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Error("database unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	if n, err := db.Migrate(ctx); err != nil {
		lg.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	} else if n > 0 {
		lg.Info("migrations applied", slog.Int("count", n))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	events := queue.NewPublisher(cfg.RabbitURL, lg)
	if cfg.RabbitURL != "" {
		audit := queue.NewAuditLog(cfg.AuditLogPath)
		defer audit.Close()
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, audit, lg); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("audit consumer stopped", slog.Any("error", err))
			}
		}()
	}

	var mailer service.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.PublicURL, lg)
	}

	months := repository.NewMonthRepo(db)
	devotionals := repository.NewDevotionalRepo(db)
	activities := repository.NewActivityRepo(db)
	progress := repository.NewProgressRepo(db)
	profiles := repository.NewProfileRepo(db)
	identities := repository.NewIdentityRepo(db)
	tokens := repository.NewTokenRepo(db)

	contentSvc := &service.ContentService{
		Months: months, Devotionals: devotionals, Activities: activities,
		Year: cfg.CalendarYear, Events: events, Logger: lg,
	}
	progressSvc := &service.ProgressService{Progress: progress, Year: cfg.CalendarYear}
	userSvc := &service.UserService{
		Identities: identities, Profiles: profiles, Progress: progress, Tokens: tokens,
		BcryptCost: cfg.BcryptCost, Events: events, Mailer: mailer, Logger: lg,
	}
	authSvc := &service.AuthService{
		Identities: identities, Profiles: profiles, Tokens: tokens,
		Secret: cfg.JWTSecret, AccessTTLMin: cfg.AccessTTLMin, RefreshTTLDays: cfg.RefreshTTLDays,
		ReuseGrace: cfg.RefreshReuse,
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		lg.Error("templates failed to parse", slog.Any("error", err))
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.CSRF([]byte(cfg.CSRFKey), cfg.CookieSecure))
	e.Use(middleware.Session(middleware.SessionConfig{
		Secret:   cfg.JWTSecret,
		Auth:     authSvc,
		Resolver: authSvc,
		Secure:   cfg.CookieSecure,
		Timeout:  cfg.RequestTimeout,
	}))

	rl := config.LoadRateLimitConfig()
	apiLimit := middleware.NewTokenBucket(rl, rdb, lg)
	loginLimit := middleware.NewTokenBucket(rl.ForLogin(), rdb, lg)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, lg)

	authH := handler.NewAuthHandler(authSvc, cfg.CookieSecure, cfg.RequestTimeout)
	contentH := handler.NewContentHandler(contentSvc, cache, cfg.RequestTimeout)
	progressH := handler.NewProgressHandler(progressSvc, cfg.RequestTimeout)
	userH := handler.NewUserHandler(userSvc, cfg.RequestTimeout)
	pageH := &handler.PageHandler{
		Auth: authSvc, Content: contentSvc, Progress: progressSvc, Users: userSvc,
		Cache: cache, Secure: cfg.CookieSecure, Timeout: cfg.RequestTimeout,
	}

	router.RegisterRoutes(e, handler.Health(db.Health))
	router.RegisterAuth(e, authH, loginLimit)
	router.RegisterReader(e, contentH, progressH, apiLimit, cache)
	router.RegisterAdmin(e, contentH, userH, apiLimit)
	router.RegisterPages(e, pageH, loginLimit)

	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env), slog.String("driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown failed", slog.Any("error", err))
	}
}
