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
	"github.com/uptrace/bun"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/config"
	"werkstatt-service/internal/domain"
	"werkstatt-service/internal/infra/memory"
	pginfra "werkstatt-service/internal/infra/postgres"
	redisinfra "werkstatt-service/internal/infra/redis"
	transport "werkstatt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, time.Minute)
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var (
		scoreRepo    app.ScoreRepository
		questionRepo app.QuestionRepository
		accountRepo  app.AccountRepository
		loader       memory.QuestionLoader
		db           *bun.DB
		pool         *pgxpool.Pool
	)
	if cfg.Postgres.URL != "" {
		db = pginfra.NewDB(cfg.Postgres.URL)
		scoreRepo = pginfra.NewScoreRepository(db)
		questionRepo = pginfra.NewQuestionRepository(db)
		accountRepo = pginfra.NewAccountRepository(db)

		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		loader = pginfra.NewQuestionLoader(pool)
	} else {
		// without Postgres the admin CRUD store doubles as the quiz pool
		// source, so created or hidden questions reach live rounds
		memQuestions := memory.NewQuestionRepository()
		for _, q := range sampleQuestions() {
			if _, err := memQuestions.Insert(ctx, q); err != nil {
				return err
			}
		}
		scoreRepo = memory.NewScoreRepository()
		questionRepo = memQuestions
		accountRepo = memory.NewAccountRepository()
		loader = memory.NewRepositoryQuestionLoader(memQuestions)
	}

	var lbCache app.LeaderboardCache
	var sessionStore app.SessionStore
	var kv app.KVStore
	if redisClient != nil {
		lbCache = redisinfra.NewLeaderboardCache(redisClient, leaderboardTTL)
		sessionStore = redisinfra.NewSessionStore(redisClient, sessionTTL)
		kv = redisinfra.NewKVStore(redisClient)
	} else {
		lbCache = memory.NewLeaderboardCache(leaderboardTTL)
		sessionStore = memory.NewSessionStore(sessionTTL)
		kv = memory.NewKVStore()
	}

	questionCache := memory.NewQuestionCache(loader, questionTTL)

	scoreService := app.NewScoreService(scoreRepo, lbCache)
	questionService := app.NewQuestionService(questionRepo, questionCache)
	authService := app.NewAuthService(accountRepo, sessionStore)
	adminService := app.NewAdminService(scoreRepo, lbCache, accountRepo)
	settingsService := app.NewSettingsService(kv)

	roundSeconds := cfg.Round.Seconds
	if roundSeconds <= 0 {
		roundSeconds = domain.DefaultRoundSeconds
	}
	confirmWindow := config.TTLDuration(cfg.Round.ConfirmWindow, 2*time.Second)

	handler := transport.NewRouter(&transport.Container{
		Auth:      authService,
		Scores:    scoreService,
		Questions: questionService,
		Admin:     adminService,
		Settings:  settingsService,
		KV:        kv,
		Round: transport.RoundOptions{
			Seconds:       roundSeconds,
			ConfirmWindow: confirmWindow,
		},
		AdminUser: cfg.Admin.Username,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting werkstatt service on :%s", finalPort)
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
	shutdownErr := server.Shutdown(shutdownCtx)

	if pool != nil {
		pool.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	return shutdownErr
}

// sampleQuestions provides a minimal quiz pool for running without Postgres.
func sampleQuestions() []domain.Question {
	now := time.Now()
	return []domain.Question{
		{
			ID:           "q-wrench",
			Text:         "Which tool tightens a hex bolt?",
			Answers:      []string{"Wrench", "Hammer", "File"},
			CorrectIndex: 0,
			Visible:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           "q-brake",
			Text:         "Which pedal stops the car?",
			Answers:      []string{"Accelerator", "Brake"},
			CorrectIndex: 1,
			Visible:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}
