package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/festival-booking/internal/config"
	"github.com/iliyamo/festival-booking/internal/database"
	"github.com/iliyamo/festival-booking/internal/handler"
	"github.com/iliyamo/festival-booking/internal/logger"
	"github.com/iliyamo/festival-booking/internal/mail"
	"github.com/iliyamo/festival-booking/internal/middleware"
	"github.com/iliyamo/festival-booking/internal/payment"
	"github.com/iliyamo/festival-booking/internal/queue"
	"github.com/iliyamo/festival-booking/internal/report"
	"github.com/iliyamo/festival-booking/internal/repository"
	"github.com/iliyamo/festival-booking/internal/router"
	"github.com/iliyamo/festival-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional outside development
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := database.Open(ctx, dsn, database.Pool{MaxOpen: cfg.DBMaxOpen})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is down
	if rdb == nil {
		log.Warn().Msg("redis unavailable; caching off, rate limiting in-process")
	} else {
		defer rdb.Close()
	}

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	festivals := repository.NewFestivalRepo(db)
	programs := repository.NewProgramRepo(db)
	bookings := repository.NewBookingRepo(db)
	reviews := repository.NewReviewRepo(db)

	// ---- Integrations ----
	var gateway service.PaymentGateway = payment.Disabled{}
	if cfg.Payment.Enabled() {
		gateway = payment.NewRazorpay(cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.Currency)
	} else {
		log.Warn().Msg("payment gateway not configured; paid bookings need an order id")
	}
	mailer, err := mail.New(cfg.Mail, cfg.Payment.Currency, log)
	if err != nil {
		return err
	}
	var notifier service.Notifier = queue.NewPublisher(cfg.AMQPURL)
	if cfg.NotifyMode == "direct" {
		notifier = queue.Direct{Handler: mailer}
	}

	// ---- Services ----
	admission := service.NewAdmissionService(service.NewSQLAdmissionStore(db), gateway, notifier, log)
	approval := service.NewApprovalService(festivals, users, notifier, log)
	catalog := service.NewCatalogService(festivals, programs)
	reviewSvc := service.NewReviewService(reviews, programs, bookings)
	reports := service.NewReportService(festivals, programs, bookings)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	rl := config.LoadRateLimitConfig()
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret, middleware.NewTokenBucket(rl, rdb))
	router.RegisterPublic(e, handler.NewPublicHandler(catalog, reviewSvc), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterStudent(e,
		handler.NewBookingHandler(admission, reviewSvc, report.NewPassSigner(cfg.JWTSecret), cfg.Payment.Currency, cfg.Payment.KeyID),
		cfg.JWTSecret, middleware.NewTokenBucket(rl.WithCapacity(rl.BookingCapacity), rdb))
	router.RegisterCollege(e, handler.NewCollegeHandler(catalog, admission, reports), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(catalog, approval), cfg.JWTSecret)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.NotifyMode != "direct" {
		g.Go(func() error {
			return queue.NewConsumer(cfg.AMQPURL, mailer, log).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		// let queued confirmations finish before the process exits
		admission.Wait()
		approval.Wait()
		return err
	})
	return g.Wait()
}
