package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/config"
	"github.com/vannda/cinebook/internal/database"
	"github.com/vannda/cinebook/internal/handler"
	"github.com/vannda/cinebook/internal/middleware"
	"github.com/vannda/cinebook/internal/payment"
	"github.com/vannda/cinebook/internal/queue"
	"github.com/vannda/cinebook/internal/repository"
	"github.com/vannda/cinebook/internal/router"
	"github.com/vannda/cinebook/internal/service"
	"github.com/vannda/cinebook/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	clk := clock.NewSystem()
	store := repository.NewStore(db)

	var gateway payment.Gateway
	if cfg.PaymentProvider == "bakong" {
		gateway = payment.NewKHQRGateway(payment.KHQRConfig{
			BaseURL:      cfg.BakongBaseURL,
			Token:        cfg.BakongToken,
			MerchantID:   cfg.MerchantID,
			MerchantName: cfg.MerchantName,
			MerchantCity: cfg.MerchantCity,
			ChargeTTL:    cfg.BookingTimeout,
		}, &http.Client{Timeout: cfg.GatewayTimeout})
	} else {
		gateway = payment.NewStubGateway(cfg.BookingTimeout)
		log.Printf("payment: using stub gateway (PAYMENT_PROVIDER=%s)", cfg.PaymentProvider)
	}

	publisher := queue.NewPublisher(cfg.RabbitURL)
	reservations := service.NewReservationService(store, clk)
	locks := service.NewSeatLockService(store, clk, cfg.LockTTL)
	payments := service.NewPaymentService(store, gateway, clk, publisher, cfg.AmountTolCents, cfg.GatewayTimeout, cfg.Currency)

	users := repository.NewUserRepo(db)
	movies := repository.NewMovieRepo(db)
	cinemas := repository.NewCinemaRepo(db)

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, rate limiting disabled")
	}
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(movies, cinemas, store.Showtimes, reservations))
	router.RegisterCustomer(e, handler.NewBookingHandler(reservations, payments, store.Bookings), handler.NewSeatLockHandler(locks), cfg.JWTSecret, limit)
	router.RegisterAdmin(e, handler.NewAdminHandler(movies, cinemas, store.Seats, store.Showtimes, store.Bookings), cfg.JWTSecret)
	router.RegisterWebhooks(e, handler.NewWebhookHandler(payments))

	sweeper := worker.NewLockSweeper(locks, cfg.SweepInterval)
	expirer := worker.NewBookingExpirer(reservations, cfg.BookingTimeout, cfg.ExpireInterval)
	poller := worker.NewPaymentPoller(payments, cfg.PollBatch, cfg.PollInterval)
	sweeper.Start()
	expirer.Start()
	poller.Start()
	defer func() {
		sweeper.Stop()
		expirer.Stop()
		poller.Stop()
	}()

	go queue.StartBookingPaidConsumer(cfg.RabbitURL)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
