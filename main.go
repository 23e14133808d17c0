package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/config"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/database"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/handlers"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/llm"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/logging"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(Version)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("reasoning_provider", cfg.Reasoning.Provider),
		zap.String("reasoning_model", cfg.Reasoning.Model),
		zap.Bool("reasoning_available", cfg.Reasoning.Available()))

	ctx := context.Background()

	// Migrations run through database/sql; the pool itself is pgx native.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	reasoningClient := buildReasoningClient(cfg, logger)

	projectRepo := repositories.NewProjectRepository(db)
	recordRepo := repositories.NewRecordRepository(db)
	decisionRepo := repositories.NewDecisionRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	guard := services.NewProtocolGuard()
	reasoner := services.NewScreeningReasoner(reasoningClient, cfg.Reasoning.Temperature,
		time.Duration(cfg.Reasoning.TimeoutSeconds)*time.Second, logger)
	recorder := services.NewDecisionRecorder(decisionRepo, logger)

	projectService := services.NewProjectService(projectRepo, logger)
	recordService := services.NewRecordService(projectRepo, recordRepo, decisionRepo, logger)
	screeningService := services.NewScreeningService(projectRepo, recordRepo, decisionRepo, guard, reasoner, recorder, logger)
	decisionService := services.NewDecisionService(recordRepo, decisionRepo, recorder, logger)
	auditService := services.NewAuditService(auditRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProjectHandler(projectService, logger).RegisterRoutes(mux)
	handlers.NewRecordHandler(recordService, logger).RegisterRoutes(mux)
	handlers.NewScreeningHandler(screeningService, logger).RegisterRoutes(mux)
	handlers.NewDecisionHandler(decisionService, logger).RegisterRoutes(mux)
	handlers.NewAuditHandler(auditService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.Screening.CronSchedule != "" {
		startScreeningCron(cfg.Screening.CronSchedule, projectRepo, screeningService, logger)
	}

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting towardevidence-backend",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildReasoningClient constructs the configured reasoning client, or nil
// when no credential is present. A nil client makes every reasoning call
// degrade to the unclear fallback instead of failing runs.
func buildReasoningClient(cfg *config.Config, logger *zap.Logger) llm.LLMClient {
	if !cfg.Reasoning.Available() {
		logger.Warn("REASONING_API_KEY is not set; screening will mark undecided records unclear")
		return nil
	}

	clientCfg := &llm.Config{
		Endpoint: cfg.Reasoning.BaseURL,
		Model:    cfg.Reasoning.Model,
		APIKey:   cfg.Reasoning.APIKey,
	}

	switch cfg.Reasoning.Provider {
	case "anthropic":
		client, err := llm.NewAnthropicClient(clientCfg, logger)
		if err != nil {
			logger.Fatal("Failed to create anthropic reasoning client", zap.Error(err))
		}
		return client
	default:
		client, err := llm.NewClient(clientCfg, logger)
		if err != nil {
			logger.Fatal("Failed to create reasoning client", zap.Error(err))
		}
		return client
	}
}

// startScreeningCron schedules screening runs for every project with an
// approved protocol. Per-project failures are logged and do not stop the
// sweep.
func startScreeningCron(schedule string, projectRepo repositories.ProjectRepository, screeningService services.ScreeningService, logger *zap.Logger) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		ctx := context.Background()
		projects, err := projectRepo.ListByProtocolStatus(ctx, models.ProtocolApproved)
		if err != nil {
			logger.Error("Scheduled screening sweep failed to list projects", zap.Error(err))
			return
		}
		for _, project := range projects {
			summary, err := screeningService.RunTitleAbstract(ctx, project.ID)
			if err != nil {
				logger.Error("Scheduled screening run failed",
					zap.String("project_id", project.ID.String()),
					zap.Error(err))
				continue
			}
			if summary.ScreenedByRules+summary.ScreenedByLLM > 0 {
				logger.Info("Scheduled screening run completed",
					zap.String("project_id", project.ID.String()),
					zap.Int("screened_by_rules", summary.ScreenedByRules),
					zap.Int("screened_by_llm", summary.ScreenedByLLM))
			}
		}
	})
	if err != nil {
		logger.Fatal("Invalid screening cron schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	scheduler.Start()
	logger.Info("Scheduled screening enabled", zap.String("schedule", schedule))
}
