package main // Entry point package

import (
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/coaching-payments/internal/config"
	"github.com/iliyamo/coaching-payments/internal/database"
	"github.com/iliyamo/coaching-payments/internal/flow"
	"github.com/iliyamo/coaching-payments/internal/handler"
	"github.com/iliyamo/coaching-payments/internal/payment"
	"github.com/iliyamo/coaching-payments/internal/queue"
	"github.com/iliyamo/coaching-payments/internal/repository"
	"github.com/iliyamo/coaching-payments/internal/router"
	queue_publisher "github.com/iliyamo/coaching-payments/internal/service"
)

// providerTimeout bounds every call to the payment provider.  There is
// no automatic retry on timeout: a blind retry could open a second live
// checkout session for the same booking.
const providerTimeout = 10 * time.Second

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	// .env is optional; in production the environment is set directly.
	if err := godotenv.Load(); err != nil {
		log.Warn("could not load .env file")
	}

	cfg := config.Load()

	// Apply pending schema migrations before accepting traffic.
	m, err := migrate.New("file://db/migrations", database.MigrateURL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.WithError(err).Fatal("could not create migration instance")
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.WithError(err).Fatal("could not apply migrations")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("could not connect to database")
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting disabled")
	}

	txRepo := repository.NewTransactionRepo(db)
	stripeClient := payment.NewStripeClient(cfg.StripeSecretKey, providerTimeout)

	checkout := handler.NewCheckoutHandler(
		txRepo,
		stripeClient,
		flow.Pricing{RateCentsPerMinute: cfg.RateCentsPerMinute},
		cfg.Currency,
		cfg.SuccessURL,
		cfg.CancelURL,
	)
	status := handler.NewStatusHandler(txRepo)
	hook := handler.NewWebhookHandler(txRepo, cfg.StripeWebhookSecret, cfg.Currency, queue_publisher.PublishPaymentConfirmed)
	admin := handler.NewAdminHandler(cfg, txRepo)

	// Background consumer appends confirmed payments to logs/payments.log.
	go func() {
		if err := queue.StartPaymentConsumer(); err != nil {
			log.WithError(err).Error("payment consumer stopped")
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, cfg, rdb, checkout, status, hook, admin)

	addr := ":" + cfg.Port
	log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
