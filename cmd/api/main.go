package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ledgerline/statement-gateway/internal/config"
	"github.com/ledgerline/statement-gateway/internal/extract"
	"github.com/ledgerline/statement-gateway/internal/handlers"
	"github.com/ledgerline/statement-gateway/internal/queue"
	"github.com/ledgerline/statement-gateway/internal/repository"
	"github.com/ledgerline/statement-gateway/internal/services"
	"github.com/ledgerline/statement-gateway/internal/statement"
	xhttp "github.com/ledgerline/statement-gateway/pkg/http"
	"github.com/ledgerline/statement-gateway/pkg/logger"
	"github.com/ledgerline/statement-gateway/pkg/pg"
	"github.com/ledgerline/statement-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	q, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
	}

	extractClient, err := extract.NewClient(extractorConfig())
	if err != nil {
		logger.Error("failed creating extraction client", "error", err)
		return
	}
	defer extractClient.Close()

	transactionRepo := repository.NewTransactionRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	auditRepo := repository.NewDeletedTransactionRepository(db)

	// services
	parser := statement.NewParser(config.Get().ImportDefaultCurrency)
	importService := services.NewImportService(parser, statementRepo, transactionRepo, accountRepo, q)
	transactionService := services.NewTransactionService(transactionRepo)
	deletionService := services.NewDeletionService(transactionRepo, auditRepo, attachmentRepo, q)
	matchService := services.NewMatchService(transactionRepo, matchWeights())
	healthService := services.NewHealthService()

	// v1 handlers
	statementHandler := handlers.NewStatementHandler(importService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, deletionService)
	matchHandler := handlers.NewMatchHandler(matchService)
	documentHandler := handlers.NewDocumentHandler(extractClient, matchService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterStatementRoutes(g, statementHandler)
	handlers.RegisterTransactionRoutes(g, transactionHandler)
	handlers.RegisterMatchRoutes(g, matchHandler)
	handlers.RegisterDocumentRoutes(g, documentHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func matchWeights() services.MatchWeights {
	return services.MatchWeights{
		AmountExact:   config.Get().MatchAmountExact,
		AmountClose:   config.Get().MatchAmountClose,
		AmountNear:    config.Get().MatchAmountNear,
		AmountInRange: config.Get().MatchAmountInRange,
		Currency:      config.Get().MatchCurrency,
		IssuerFull:    config.Get().MatchIssuerFull,
		IssuerPartial: config.Get().MatchIssuerPartial,
	}
}

func extractorConfig() *extract.Config {
	providers := make([]extract.ProviderConfig, 0, 3)
	if url := config.Get().ExtractorPrimaryUrl; url != "" {
		providers = append(providers, extract.ProviderConfig{Name: "primary", URL: url, Weight: 100})
	}
	if url := config.Get().ExtractorSecondaryUrl; url != "" {
		providers = append(providers, extract.ProviderConfig{Name: "secondary", URL: url, Weight: 80})
	}
	if url := config.Get().ExtractorBackupUrl; url != "" {
		providers = append(providers, extract.ProviderConfig{Name: "backup", URL: url, Weight: 60})
	}
	return &extract.Config{
		Providers:               providers,
		Timeout:                 10 * time.Second,
		MaxRetries:              2,
		RetryDelay:              time.Second,
		MaxConns:                100,
		ReadBufferSize:          1024 * 16,
		WriteBufferSize:         1024 * 16,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
