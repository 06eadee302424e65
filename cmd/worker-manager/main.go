// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"church-workers/internal/common/camunda"
	"church-workers/internal/common/config"
	"church-workers/internal/common/database"
	"church-workers/internal/common/logger"
	"church-workers/internal/common/observability"
	"church-workers/pkg/registry"

	// Registration Workers (3)
	acr "church-workers/internal/workers/registration/assess-church-risk"
	apa "church-workers/internal/workers/registration/assess-pastor-application"
	ccr "church-workers/internal/workers/registration/create-church-record"

	// Member Analytics Workers (6)
	amt "church-workers/internal/workers/member/analyze-member-trend"
	ccs "church-workers/internal/workers/member/calculate-commitment-score"
	dar "church-workers/internal/workers/member/detect-abandonment-risk"
	gfr "church-workers/internal/workers/member/generate-followup-recommendations"
	sma "church-workers/internal/workers/member/suggest-ministry-assignments"
	ums "church-workers/internal/workers/member/update-member-scores"

	// Data Access Workers (2)
	qm "church-workers/internal/workers/data-access/query-members"
	sm "church-workers/internal/workers/data-access/search-members"

	// Communication Workers (1)
	sn "church-workers/internal/workers/communication/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Activity Registry ---
	activityRegistry, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable, continuing without it", zap.Error(err))
	} else {
		zapLog.Info("activity registry loaded",
			zap.String("version", activityRegistry.Version),
			zap.Int("activities", len(activityRegistry.Activities)),
		)
	}

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- START: Register ALL 12 Workers ---

	// --- 1. Registration Workers (3) ---
	if cfg.Workers[apa.TaskType].Enabled {
		handler := apa.NewHandler(
			&apa.Config{
				Timeout: time.Duration(cfg.Workers[apa.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, apa.TaskType, cfg.Workers[apa.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[acr.TaskType].Enabled {
		handler := acr.NewHandler(
			&acr.Config{
				Timeout: time.Duration(cfg.Workers[acr.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, acr.TaskType, cfg.Workers[acr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ccr.TaskType].Enabled {
		handler := ccr.NewHandler(
			&ccr.Config{
				Timeout: time.Duration(cfg.Workers[ccr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, ccr.TaskType, cfg.Workers[ccr.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Member Analytics Workers (6) ---
	if cfg.Workers[ccs.TaskType].Enabled {
		handler := ccs.NewHandler(
			&ccs.Config{
				Timeout: time.Duration(cfg.Workers[ccs.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, ccs.TaskType, cfg.Workers[ccs.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[dar.TaskType].Enabled {
		handler := dar.NewHandler(
			&dar.Config{
				Timeout: time.Duration(cfg.Workers[dar.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, dar.TaskType, cfg.Workers[dar.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[amt.TaskType].Enabled {
		handler := amt.NewHandler(
			&amt.Config{
				Timeout: time.Duration(cfg.Workers[amt.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, amt.TaskType, cfg.Workers[amt.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[gfr.TaskType].Enabled {
		handler := gfr.NewHandler(
			&gfr.Config{
				Timeout: time.Duration(cfg.Workers[gfr.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, gfr.TaskType, cfg.Workers[gfr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sma.TaskType].Enabled {
		handler := sma.NewHandler(
			&sma.Config{
				Timeout: time.Duration(cfg.Workers[sma.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, sma.TaskType, cfg.Workers[sma.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ums.TaskType].Enabled {
		handler := ums.NewHandler(
			&ums.Config{
				Timeout:  time.Duration(cfg.Workers[ums.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 10 * time.Minute,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, ums.TaskType, cfg.Workers[ums.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Data Access Workers (2) ---
	if cfg.Workers[qm.TaskType].Enabled {
		handler := qm.NewHandler(
			&qm.Config{
				Timeout: time.Duration(cfg.Workers[qm.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, qm.TaskType, cfg.Workers[qm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sm.TaskType].Enabled {
		handler := sm.NewHandler(
			&sm.Config{
				Timeout:      time.Duration(cfg.Workers[sm.TaskType].Timeout) * time.Millisecond,
				DefaultIndex: "members",
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, sm.TaskType, cfg.Workers[sm.TaskType], handler.Handle, zapLog)
	}

	// --- 4. Communication Workers (1) ---
	if cfg.Workers[sn.TaskType].Enabled {
		handler, err := sn.NewHandler(
			&sn.Config{
				EmailEnabled:     cfg.Notifications.Email.Enabled,
				SMSEnabled:       cfg.Notifications.SMS.Enabled,
				FromEmail:        cfg.Notifications.Email.FromEmail,
				AWSRegion:        cfg.Notifications.AWS.Region,
				SMSPriority:      cfg.Notifications.SMS.PriorityThreshold,
				TemplateRegistry: cfg.Registry.TemplatePath,
				Timeout:          time.Duration(cfg.Workers[sn.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 12 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
					"time":   time.Now().Format(time.RFC3339),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
