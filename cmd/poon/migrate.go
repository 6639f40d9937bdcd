package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
	"github.com/vorrawut/poon-ai-service-sub001/internal/config"
	"github.com/vorrawut/poon-ai-service-sub001/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetBool("status")

			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(settings.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if !status {
				if err := store.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
			}

			current, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}

			result := map[string]any{
				"path":     store.Path(),
				"version":  current,
				"expected": storage.ExpectedSchemaVersion,
			}
			return emit(cmd.OutOrStdout(), result, func() string {
				switch {
				case current == storage.ExpectedSchemaVersion:
					return cli.FormatSuccess(fmt.Sprintf("Schema is at version %d (%s)", current, store.Path()))
				case status:
					return cli.FormatWarning(fmt.Sprintf("Schema is at version %d, expected %d; run poon migrate",
						current, storage.ExpectedSchemaVersion))
				default:
					return cli.FormatError(fmt.Sprintf("Schema stopped at version %d", current))
				}
			})
		},
	}

	cmd.Flags().Bool("status", false, "report the schema version without migrating")

	return cmd
}
