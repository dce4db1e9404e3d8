package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/pgstore"
	"github.com/jonathan/resume-builder/internal/selector"
)

var (
	migrateUser  string
	migrateRetry bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the local document slot to the durable backend",
	Long:  `Run a backend eligibility check for the given user: if the local slot holds content and no migration has completed, push it to PostgreSQL and clear the slot.`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateUser, "user", "", "Owner user id (UUID) for the migrated document")
	migrateCmd.Flags().BoolVar(&migrateRetry, "retry", false, "Force a retry after exhausted attempts")
	_ = migrateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	subject, err := uuid.Parse(migrateUser)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", migrateUser, err)
	}

	log := newLogger(cfg)
	identity := auth.NewStaticProvider(subject)

	durable, err := pgstore.Connect(cmd.Context(), cfg.DatabaseURL, identity)
	if err != nil {
		return err
	}
	defer durable.Close()
	if err := durable.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open state dir: %w", err)
	}

	var migratedID string
	sel := selector.New(local, durable, identity,
		selector.WithRetryCeiling(cfg.MigrationRetryCeiling),
		selector.WithLogger(log.With().Str("component", "selector").Logger()),
		selector.OnMigrated(func(id string) { migratedID = id }),
	)

	state := sel.Resolve(cmd.Context())
	if migrateRetry && state != selector.StateDurableOnly {
		state, err = sel.Retry(cmd.Context())
		if err != nil {
			return err
		}
	}

	switch {
	case migratedID != "":
		fmt.Printf("Migrated local document to %s\n", migratedID)
	case state == selector.StateDurableOnly:
		fmt.Println("Nothing to migrate; durable backend is active.")
	default:
		fmt.Printf("Migration not completed; selector state is %s after %d attempt(s).\n",
			state, local.Markers().MigrationAttempts())
	}
	return nil
}
