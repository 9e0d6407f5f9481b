// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ezrelo/internal/address"
	"ezrelo/internal/assets"
	awsclient "ezrelo/internal/common/aws"
	"ezrelo/internal/common/camunda"
	"ezrelo/internal/common/config"
	"ezrelo/internal/common/database"
	commonerrors "ezrelo/internal/common/errors"
	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/common/observability"
	"ezrelo/internal/journey"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/progress"
	"ezrelo/internal/providers"
	"ezrelo/internal/questionnaire"
	"ezrelo/internal/referral"
	"ezrelo/internal/store"
	"ezrelo/pkg/registry"

	// Relocation Workers (2)
	pa "ezrelo/internal/workers/relocation/parse-address"
	smc "ezrelo/internal/workers/relocation/set-move-context"

	// Provider Workers (4)
	fp "ezrelo/internal/workers/providers/filter-providers"
	sp "ezrelo/internal/workers/providers/search-providers"
	sm "ezrelo/internal/workers/providers/select-mover"
	tr "ezrelo/internal/workers/providers/track-referral"

	// Journey Workers (3)
	gj "ezrelo/internal/workers/journey/generate-journey"
	jp "ezrelo/internal/workers/journey/journey-progress"
	tt "ezrelo/internal/workers/journey/toggle-task"

	// Questionnaire Workers (3)
	sq "ezrelo/internal/workers/questionnaire/save-questionnaire"
	sqe "ezrelo/internal/workers/questionnaire/send-questionnaire-email"
	swm "ezrelo/internal/workers/questionnaire/share-with-movers"
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

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.Zeebe()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	journeys := journey.NewRepository(pg.DB)
	if err := journeys.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("journey schema bootstrap failed", zap.Error(err))
	}

	// --- Init key-value store (Redis or in-process) ---
	var kv store.Store
	if cfg.Database.Redis.UseMemory() {
		kv = store.NewMemoryStore(log.WithFields(map[string]interface{}{"component": "store"}))
		zapLog.Warn("Using in-process store; user state is lost on restart")
	} else {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		kv = store.NewRedisStore(rc.Client, cfg.Database.Redis.KeyPrefix, log.WithFields(map[string]interface{}{"component": "store"}))
		zapLog.Info("Redis connected successfully")
	}

	// --- Backend clients ---
	backend := commonhttp.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, 0)
	genai := backend
	if cfg.APIs.GenAI.BaseURL != "" {
		genai = commonhttp.NewClient(cfg.APIs.GenAI.BaseURL, cfg.APIs.GenAI.APIKey, config.GetDuration(cfg.APIs.GenAI.Timeout))
	}

	// --- Provider search ---
	endpoints := map[providers.Category]string{}
	for _, c := range []providers.Category{providers.CategoryMoving, providers.CategoryUtilities, providers.CategoryHousing, providers.CategoryLocal} {
		if p := cfg.Backend.Endpoint(string(c), ""); p != "" {
			endpoints[c] = p
		}
	}
	router := providers.NewRouter(providers.NewHTTPSearcher(backend, endpoints))

	if cfg.Search.DirectoryBackend == "elasticsearch" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		router.Route(providers.CategoryLocal, providers.NewDirectorySearcher(esClient.Client, esClient.Index))
		zapLog.Info("Elasticsearch directory connected successfully", zap.String("index", esClient.Index))
	}

	searchService := providers.NewService(router, kv, providers.ServiceConfig{
		CacheTTL:      time.Duration(cfg.Search.CacheTTL) * time.Second,
		FallbackCity:  cfg.Search.FallbackCity,
		FallbackState: cfg.Search.FallbackState,
	}, log.WithFields(map[string]interface{}{"component": "search"}))

	// --- Shared domain services ---
	contexts := movecontext.NewStore(kv)
	tracker := referral.NewTracker(backend, cfg.Backend.Endpoint("track_referral", ""), 0, log.WithFields(map[string]interface{}{"component": "referral"}))
	completion := progress.NewTracker(kv, log.WithFields(map[string]interface{}{"component": "progress"}))
	questionnaires := questionnaire.NewRepository(kv, log.WithFields(map[string]interface{}{"component": "questionnaire"}))
	planner := journey.NewGenerator(genai, cfg.Backend.Endpoint("ai_recommendations", ""), log.WithFields(map[string]interface{}{"component": "journey"}))
	movers := providers.NewMoverBackend(backend, cfg.Backend.Endpoint("moving_project", ""), cfg.Backend.Endpoint("select_mover", ""))
	verifier := address.NewVerifier(backend, cfg.Backend.Endpoint("verify_address", ""))

	logos := assets.NewRegistry()
	unsubscribe := logos.Subscribe(func(a assets.Asset) {
		zapLog.Debug("asset registered", zap.String("kind", string(a.Kind)), zap.String("name", a.Name))
	})
	defer unsubscribe()

	// --- AWS messaging ---
	var mailer sqe.Mailer
	if cfg.Integrations.AWS.SES.Enabled {
		ses, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		mailer = ses
	}
	var texter swm.Texter
	if cfg.Integrations.AWS.SNS.Enabled {
		sns, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		texter = sns
	}
	zapLog.Info("All external service clients initialized",
		zap.Bool("ses", mailer != nil),
		zap.Bool("sns", texter != nil),
		zap.String("directory", cfg.Search.DirectoryBackend),
	)

	// --- Activity registry and input validation ---
	var validator camunda.InputValidator
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable, input validation disabled", zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	} else {
		validator = registry.NewInputValidator(reg)
	}
	validationErrors := commonerrors.NewErrorHandler(log.WithFields(map[string]interface{}{"component": "input-validation"}))

	var jobWorkers []worker.JobWorker
	start := func(taskType string, handler camunda.HandlerFunc) {
		if reg != nil {
			if _, ok := reg.Find(taskType); !ok {
				zapLog.Warn("task type missing from activity registry", zap.String("taskType", taskType))
			}
		}
		wrapped := camunda.Instrument(taskType, camunda.WithInputValidation(taskType, validator, validationErrors, handler), obs)
		if jw := camunda.StartWorker(zeebeClient, taskType, config.GetWorkerConfig(cfg, taskType), wrapped, zapLog); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}
	}

	// --- START: Register ALL 12 Workers ---

	// --- 1. Relocation Workers (2) ---
	{
		c := pa.LoadConfig()
		c.Timeout = workerTimeout(cfg, pa.TaskType)
		if cfg.Search.FallbackCity != "" {
			c.FallbackCity = cfg.Search.FallbackCity
			c.FallbackState = cfg.Search.FallbackState
		}
		start(pa.TaskType, pa.NewHandler(c, verifier, log).Handle)
	}
	{
		c := smc.LoadConfig()
		c.Timeout = workerTimeout(cfg, smc.TaskType)
		start(smc.TaskType, smc.NewHandler(c, contexts, log).Handle)
	}

	// --- 2. Provider Workers (4) ---
	{
		c := sp.LoadConfig()
		c.Timeout = workerTimeout(cfg, sp.TaskType)
		start(sp.TaskType, sp.NewHandler(c, searchService, contexts, logos, log).Handle)
	}
	{
		c := fp.LoadConfig()
		c.Timeout = workerTimeout(cfg, fp.TaskType)
		c.PageSize = cfg.Search.PageSize
		start(fp.TaskType, fp.NewHandler(c, searchService, contexts, log).Handle)
	}
	{
		c := tr.LoadConfig()
		c.Timeout = workerTimeout(cfg, tr.TaskType)
		start(tr.TaskType, tr.NewHandler(c, tracker, log).Handle)
	}
	{
		c := sm.LoadConfig()
		c.Timeout = workerTimeout(cfg, sm.TaskType)
		start(sm.TaskType, sm.NewHandler(c, movers, contexts, kv, tracker, log).Handle)
	}

	// --- 3. Journey Workers (3) ---
	{
		c := gj.LoadConfig()
		c.Timeout = workerTimeout(cfg, gj.TaskType)
		start(gj.TaskType, gj.NewHandler(c, planner, journeys, contexts, log).Handle)
	}
	{
		c := tt.LoadConfig()
		c.Timeout = workerTimeout(cfg, tt.TaskType)
		start(tt.TaskType, tt.NewHandler(c, completion, journeys, log).Handle)
	}
	{
		c := jp.LoadConfig()
		c.Timeout = workerTimeout(cfg, jp.TaskType)
		start(jp.TaskType, jp.NewHandler(c, completion, journeys, log).Handle)
	}

	// --- 4. Questionnaire Workers (3) ---
	{
		c := sq.LoadConfig()
		c.Timeout = workerTimeout(cfg, sq.TaskType)
		start(sq.TaskType, sq.NewHandler(c, questionnaires, log).Handle)
	}
	{
		c := sqe.LoadConfig()
		c.Timeout = workerTimeout(cfg, sqe.TaskType)
		c.Enabled = mailer != nil
		start(sqe.TaskType, sqe.NewHandler(c, questionnaires, contexts, mailer, log).Handle)
	}
	{
		c := swm.LoadConfig()
		c.Timeout = workerTimeout(cfg, swm.TaskType)
		c.Endpoint = cfg.Backend.Endpoint("share_with_movers", c.Endpoint)
		c.SMSEnabled = texter != nil
		start(swm.TaskType, swm.NewHandler(c, backend, questionnaires, contexts, tracker, texter, log).Handle)
	}
	zapLog.Info("Workers registered", zap.Int("running", len(jobWorkers)))

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	ready.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.ListenAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range jobWorkers {
		jw.Close()
	}
	for _, jw := range jobWorkers {
		jw.AwaitClose()
	}

	flushed := make(chan struct{})
	go func() {
		tracker.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-shutdownCtx.Done():
		zapLog.Warn("referral tracking still in flight at shutdown")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
