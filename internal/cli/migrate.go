package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-battle/internal/config"
	pgloader "quiz-battle/internal/infra/postgres"
	pgmigrations "quiz-battle/internal/infra/postgres/migrations"
	"quiz-battle/internal/pools"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the question pool table in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			if seed == "" {
				return nil
			}
			return seedPools(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "YAML pool file to upsert after migrating (\"default\" for the bundled sets)")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info().Msg("no new migrations")
		return nil
	}
	log.Info().Str("group", group.String()).Msg("migrations applied")
	return nil
}

// seedPools upserts every set of a pool file into question_pools.
func seedPools(ctx context.Context, cfg config.Config, file string) error {
	if file == "default" {
		file = ""
	}
	sets := pools.Default()
	if file != "" {
		loaded, err := pools.ReadFile(file)
		if err != nil {
			return err
		}
		sets = loaded
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgloader.NewPoolLoader(pool)
	for name, set := range sets {
		if err := loader.SavePools(ctx, name, set); err != nil {
			return err
		}
		log.Info().Str("set", name).Int("words", len(set.Words)).Int("choices", len(set.Choices)).
			Int("images", len(set.Images)).Int("bonus", len(set.Bonus)).Msg("pool set seeded")
	}
	return nil
}
