package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fooddash-backend/internal/config"
	"fooddash-backend/internal/infrastructure/bus"
	"fooddash-backend/internal/infrastructure/repo"
	"fooddash-backend/internal/infrastructure/stripe"
	"fooddash-backend/internal/server"
	"fooddash-backend/internal/usecase"
)

func main() {
	_ = godotenv.Load()
	envDefaults := config.EnvDefaults()

	env := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	databaseURL := flag.String("database-url", envDefaults.DatabaseURL, "")
	amqpURL := flag.String("amqp-url", envDefaults.AMQPURL, "")
	jwtSecret := flag.String("jwt-secret", envDefaults.JWTSecret, "")
	taxRate := flag.String("tax-rate", envDefaults.TaxRate, "")
	deliveryFee := flag.String("delivery-fee", envDefaults.DeliveryFee, "")
	logJSON := flag.Bool("log-json", envDefaults.LogJSON, "")
	flag.Parse()

	cfg := envDefaults
	cfg.Env = *env
	cfg.Port = *port
	cfg.DatabaseURL = *databaseURL
	cfg.AMQPURL = *amqpURL
	cfg.JWTSecret = *jwtSecret
	cfg.TaxRate = *taxRate
	cfg.DeliveryFee = *deliveryFee
	cfg.LogJSON = *logJSON

	log := logrus.New()
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT secret not set")
	}
	tax, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		log.Fatalf("invalid tax rate %q: %v", cfg.TaxRate, err)
	}
	fee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Fatalf("invalid delivery fee %q: %v", cfg.DeliveryFee, err)
	}

	var (
		orderRepo      usecase.OrderRepo
		menuRepo       usecase.MenuItemRepo
		restaurantRepo usecase.RestaurantRepo
		userRepo       usecase.UserRepo
	)
	if cfg.DatabaseURL != "" {
		pg, err := repo.NewPostgresRepo(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		defer pg.Close()
		orderRepo = pg
		menuRepo = pg.MenuItems()
		restaurantRepo = pg.Restaurants()
		userRepo = pg.Users()
		log.Info("connected to postgres")
	} else {
		orderRepo = repo.NewMemoryOrderRepo()
		menuRepo = repo.NewMemoryMenuItemRepo()
		restaurantRepo = repo.NewMemoryRestaurantRepo()
		userRepo = repo.NewMemoryUserRepo()
		log.Warn("no database configured, using in-memory repositories")
	}

	var notifications bus.Bus
	if cfg.AMQPURL != "" {
		amqpBus, err := bus.NewAMQPBus(cfg.AMQPURL, log)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer amqpBus.Close()
		notifications = amqpBus
		log.Info("connected to RabbitMQ")
	} else {
		notifications = bus.NewMemoryBus()
		log.Warn("no AMQP URL configured, using in-process notification bus")
	}

	gateway := &stripe.Client{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		BaseURL:       cfg.StripeBaseURL,
	}
	if gateway.Mock() {
		log.Warn("no payment provider key configured, running gateway in mock mode")
	}

	orders := &usecase.OrderService{
		Orders:      orderRepo,
		Menu:        menuRepo,
		Restaurants: restaurantRepo,
		Gateway:     gateway,
		Bus:         notifications,
		Log:         log,
		TaxRate:     tax,
		DeliveryFee: fee,
		Currency:    cfg.Currency,
		PrepWindow:  time.Duration(cfg.PrepWindowMinutes) * time.Minute,
	}
	auth := &usecase.AuthService{Users: userRepo, JWTSecret: cfg.JWTSecret}

	srv := server.New(cfg, log, auth, orders, notifications)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		log.Info("shutting down")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("starting server")
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
