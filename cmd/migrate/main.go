package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"blogpost/internal/config"
	"blogpost/internal/db"
	"blogpost/internal/log"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or inspect the blog database schema",
		SilenceUsage: true,
	}
	for _, command := range []struct{ name, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the most recent migration"},
		{"status", "Print the state of every migration"},
	} {
		root.AddCommand(&cobra.Command{
			Use:   command.name,
			Short: command.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), command.name)
			},
		})
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	sqlDB, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlDB.Close()

	return db.Migrate(ctx, sqlDB, cfg.DBDriver, command, logger)
}
