package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/gateway-simulator/pkg/delivery"
	"github.com/chris/gateway-simulator/pkg/handlers/admin"
	"github.com/chris/gateway-simulator/pkg/handlers/payments"
	"github.com/chris/gateway-simulator/pkg/lifecycle"
	"github.com/chris/gateway-simulator/pkg/metrics"
	gwmiddleware "github.com/chris/gateway-simulator/pkg/middleware"
	"github.com/chris/gateway-simulator/pkg/models"
	"github.com/chris/gateway-simulator/pkg/outcome"
	"github.com/chris/gateway-simulator/pkg/scheduler"
	"github.com/chris/gateway-simulator/pkg/storage"
	"github.com/chris/gateway-simulator/pkg/storage/bolt"
	"github.com/chris/gateway-simulator/pkg/storage/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	store, closeStore, err := buildStore()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	engine, err := outcome.NewEngine(outcomeConfigFromEnv())
	if err != nil {
		log.Fatalf("Invalid outcome configuration: %v", err)
	}

	if err := seedMerchant(store); err != nil {
		log.Fatalf("Failed to seed merchant: %v", err)
	}

	sched := scheduler.NewTimerScheduler()
	defer sched.Shutdown()

	gatewayMetrics := metrics.NewGatewayMetrics()

	agent := delivery.NewAgent(store, store, sched, logger, gatewayMetrics)
	controller := lifecycle.NewController(store, engine, sched, agent, logger, gatewayMetrics)

	paymentsHandler := payments.NewPaymentsHandler(store, store, controller, gatewayMetrics)
	adminHandler := admin.NewAdminHandler(engine, store, agent)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(gwmiddleware.NewStructuredLogger(logger))

	router.Post("/pay", paymentsHandler.CreatePayment)
	router.Get("/payments", paymentsHandler.QueryPayments)

	router.Route("/admin", func(r chi.Router) {
		r.Get("/outcome", adminHandler.GetOutcomeConfig)
		r.Put("/outcome", adminHandler.PutOutcomeConfig)
		r.Post("/outcome/rules", adminHandler.AddOutcomeRule)
		r.Delete("/outcome/rules", adminHandler.ClearOutcomeRules)
		r.Post("/merchants", adminHandler.UpsertMerchant)
		r.Post("/transactions/{id}/deliver", adminHandler.ResendWebhook)
	})

	router.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	server := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		logger.Info("starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// In-flight lifecycle timers do not survive a restart; transactions mid
	// schedule are left in their last persisted state.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("ERROR: graceful shutdown failed: %v", err)
	}
}

// buildStore selects the storage backend from STORE_BACKEND: "bolt"
// (default) keeps everything in a local file, "dynamodb" targets AWS
// tables.
func buildStore() (storage.Storage, func(), error) {
	switch backend := os.Getenv("STORE_BACKEND"); backend {
	case "", "bolt":
		path := os.Getenv("BOLT_DB_PATH")
		if path == "" {
			path = "gateway.db"
		}
		store, err := bolt.New(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "dynamodb":
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
		if err != nil {
			return nil, nil, err
		}
		transactionsTable := os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME")
		merchantsTable := os.Getenv("DYNAMODB_MERCHANTS_TABLE_NAME")
		if transactionsTable == "" || merchantsTable == "" {
			log.Fatal("One or more DynamoDB table name environment variables are not set")
		}
		store := dynamodb.New(awsdynamodb.NewFromConfig(cfg), transactionsTable, merchantsTable)
		return store, func() {}, nil

	default:
		log.Fatalf("Unknown STORE_BACKEND %q", backend)
		return nil, nil, nil
	}
}

// outcomeConfigFromEnv assembles the boot-time outcome configuration.
// Everything here is adjustable at runtime through the admin API.
func outcomeConfigFromEnv() outcome.Config {
	cfg := outcome.Config{
		DefaultOutcome:  outcome.Success,
		ProcessingDelay: 2 * time.Second,
		CallbackDelay:   5 * time.Second,
	}

	if v := os.Getenv("DEFAULT_OUTCOME"); v != "" {
		cfg.DefaultOutcome = outcome.Outcome(v)
	}
	if v := os.Getenv("PROCESSING_DELAY_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ProcessingDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("CALLBACK_DELAY_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.CallbackDelay = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// seedMerchant provisions one merchant from the environment so a fresh
// instance is usable without calling the admin API first.
func seedMerchant(merchants storage.MerchantStore) error {
	key := os.Getenv("MERCHANT_KEY")
	secret := os.Getenv("MERCHANT_SECRET")
	if key == "" || secret == "" {
		return nil
	}

	return merchants.PutMerchant(context.Background(), &models.Merchant{
		Key:    key,
		Secret: secret,
		Name:   "Seed Merchant",
		Active: true,
	})
}
