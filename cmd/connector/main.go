package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shopsync/internal/application"
	"shopsync/internal/application/webhook_handlers"
	"shopsync/internal/config"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/infrastructure/pubsub"
	"shopsync/internal/infrastructure/repository"
	shopifyinfra "shopsync/internal/infrastructure/shopify"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Connect to Postgres
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	store := repository.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database schema")
	}

	// Optional Redis for event fan-out
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("REDIS_URL not set, sync events will not be published")
	}
	publisher := pubsub.NewRedisPublisher(redisClient, logger)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	// Infrastructure clients
	restClient := shopifyinfra.NewRestClient(cfg.HTTPTimeout, logger)
	exporterClient := shopifyinfra.NewExporterClient(logger)
	verifier := shopifyinfra.NewHmacVerifier()

	// Application services
	guard := application.NewRunGuard()
	importer := application.NewImportService(store, restClient, publisher, recorder, cfg.BatchSize, cfg.PageSize, logger)
	exporter := application.NewExportService(store, exporterClient, publisher, recorder, logger)
	operations := application.NewOperationService(store, importer, exporter, guard, recorder, logger)
	scheduler := application.NewSchedulerService(store, importer, guard, recorder, cfg.SchedulerTick, logger)

	webhookService := application.NewWebhookService(store, verifier, publisher, recorder, []webhook_handlers.Handler{
		webhook_handlers.NewOrderHandler(store, logger),
		webhook_handlers.NewProductHandler(store, logger),
		webhook_handlers.NewCustomerHandler(store, logger),
		webhook_handlers.NewInventoryHandler(store, logger),
		webhook_handlers.NewAppUninstalledHandler(store, logger),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.ResetStaleRuns(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to reset stale schedule flags")
	}
	go scheduler.Start(ctx)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/shopify", webhookEndpoint(webhookService, logger))
	r.Post("/operations", operationEndpoint(operations, logger))
	r.Post("/schedules/{id}/run", runScheduleEndpoint(store, scheduler, logger))
	r.Get("/instances/{id}/logs", syncLogsEndpoint(store, logger))
	r.Get("/instances/{id}/stats", syncStatsEndpoint(store, logger))
	r.Delete("/instances/{id}", deleteInstanceEndpoint(store, logger))

	logger.Info().Str("port", cfg.Port).Msg("Starting connector server")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// webhookEndpoint receives Shopify webhooks. Processing problems are
// acknowledged so the platform does not retry forever; only a bad
// signature is refused.
func webhookEndpoint(svc *application.WebhookService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}
		shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
		signature := r.Header.Get("X-Shopify-Hmac-SHA256")

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := svc.Process(r.Context(), topic, shopDomain, signature, payload); err != nil {
			if errors.Is(err, application.ErrUnknownWebhookSignature) {
				http.Error(w, "Invalid signature", http.StatusUnauthorized)
				return
			}
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to process webhook")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

// operationEndpoint triggers one named sync for an instance.
func operationEndpoint(svc *application.OperationService, logger zerolog.Logger) http.HandlerFunc {
	type request struct {
		InstanceID uint   `json:"instance_id"`
		Operation  string `json:"operation"`
		From       string `json:"from"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.InstanceID == 0 || req.Operation == "" {
			http.Error(w, "instance_id and operation are required", http.StatusBadRequest)
			return
		}
		var from *time.Time
		if req.From != "" {
			parsed, err := time.Parse(time.RFC3339, req.From)
			if err != nil {
				http.Error(w, "from must be RFC3339", http.StatusBadRequest)
				return
			}
			from = &parsed
		}

		summary, err := svc.Run(r.Context(), req.InstanceID, application.Operation(req.Operation), from)
		if err != nil {
			if errors.Is(err, application.ErrSyncInProgress) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Error().Err(err).Str("operation", req.Operation).Msg("Operation failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  summary.Status(),
			"message": summary.Message(),
			"fetched": summary.Fetched,
			"created": summary.Created,
			"updated": summary.Updated,
			"failed":  summary.Failed,
		})
	}
}

// runScheduleEndpoint fires a schedule immediately, subject to the guard.
func runScheduleEndpoint(store *repository.GormStore, scheduler *application.SchedulerService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			http.Error(w, "Invalid schedule id", http.StatusBadRequest)
			return
		}
		schedule, err := store.FindSchedule(r.Context(), uint(id))
		if err != nil {
			http.Error(w, "Schedule not found", http.StatusNotFound)
			return
		}

		status, message, err := scheduler.RunSchedule(r.Context(), schedule)
		if err != nil {
			logger.Error().Err(err).Uint64("scheduleId", id).Msg("Schedule run failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if status == "" {
			http.Error(w, message, http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  string(status),
			"message": message,
		})
	}
}

// syncLogsEndpoint lists recent sync logs for an instance.
func syncLogsEndpoint(store *repository.GormStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			http.Error(w, "Invalid instance id", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		logs, err := store.ListSyncLogs(r.Context(), uint(id), limit)
		if err != nil {
			logger.Error().Err(err).Uint64("instanceId", id).Msg("Failed to list sync logs")
			http.Error(w, "Failed to list sync logs", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(logs)
	}
}

// syncStatsEndpoint aggregates an instance's sync history per type and
// direction.
func syncStatsEndpoint(store *repository.GormStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			http.Error(w, "Invalid instance id", http.StatusBadRequest)
			return
		}
		stats, err := store.SyncLogStats(r.Context(), uint(id))
		if err != nil {
			logger.Error().Err(err).Uint64("instanceId", id).Msg("Failed to aggregate sync stats")
			http.Error(w, "Failed to aggregate sync stats", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// deleteInstanceEndpoint removes an instance and all data imported for it.
func deleteInstanceEndpoint(store *repository.GormStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			http.Error(w, "Invalid instance id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteInstanceData(r.Context(), uint(id)); err != nil {
			logger.Error().Err(err).Uint64("instanceId", id).Msg("Failed to delete instance data")
			http.Error(w, "Failed to delete instance", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
