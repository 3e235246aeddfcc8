package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/config"
	"mock-exam-service/internal/domain"
	"mock-exam-service/internal/infra/memory"
	pgloader "mock-exam-service/internal/infra/postgres"
	redisinfra "mock-exam-service/internal/infra/redis"
	transport "mock-exam-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tick := config.TTLDuration(cfg.Exam.Tick, time.Second)
	wsHandler := transport.NewWSHandler(service, tick)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exam session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService wires stores and repositories from config: Redis makes
// attempts durable across restarts, Postgres supplies bank content, and
// both fall back to in-memory implementations for local runs.
func buildService(ctx context.Context, cfg config.Config) (*app.ExamService, func(), error) {
	cleanup := func() {}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 0) // 0 = attempts never expire

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		cleanup = pool.Close
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Exam.BankTTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var stores app.SessionStores
	if redisClient != nil {
		stores = redisinfra.NewSessionStores(redisClient, redisTTL)
	} else {
		stores = memory.NewSessionStores()
	}

	return app.NewExamService(stores, banks, cfg.TimeLimit()), cleanup, nil
}

// sampleBanks provides a minimal bank for running without Postgres.
func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"bank-1": {
			ID: "bank-1",
			Subjects: []domain.Subject{
				{
					Name: "Math",
					Questions: []domain.Question{
						{
							Text:    "What is 2 + 2?",
							Options: map[string]string{"A": "3", "B": "4", "C": "5"},
							Answer:  "B",
						},
					},
				},
				{
					Name: "Physics",
					Questions: []domain.Question{
						{
							Text:    "Unit of force?",
							Options: map[string]string{"A": "Newton", "B": "Joule"},
							Answer:  "A",
						},
					},
				},
			},
		},
	}
}
