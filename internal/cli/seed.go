package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/config"
	pginfra "werkstatt-service/internal/infra/postgres"
)

// NewSeedCmd loads the starter quiz questions into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed starter quiz questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	db := pginfra.NewDB(cfg.Postgres.URL)
	defer db.Close()

	repo := pginfra.NewQuestionRepository(db)
	existing, err := repo.List(ctx, app.QuestionListOptions{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("questions already present, skipping seed")
		return nil
	}

	for _, q := range sampleQuestions() {
		if _, err := repo.Insert(ctx, q); err != nil {
			return fmt.Errorf("seed question %q: %w", q.Text, err)
		}
	}
	log.Printf("seeded %d questions", len(sampleQuestions()))
	return nil
}
