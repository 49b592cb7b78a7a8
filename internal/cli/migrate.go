package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"github.com/stemsi/scholardist/internal/config"
)

// MigrationStatus reports the schema version after a migrate command.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect ledger schema migrations (uses DATABASE_URL)",
	}
	cmd.PersistentFlags().StringVar(&dir, "path", "migrations", "path to migration files")

	open := func() (*migrate.Migrate, error) {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
		m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("migration failed to initialize: %w", err)
		}
		return m, nil
	}

	report := func(cmd *cobra.Command, m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("version: %w", err)
		}
		status := MigrationStatus{Version: version, Dirty: dirty}
		return emit(cmd.OutOrStdout(), rootOpts.Format, status, func(w io.Writer) error {
			return textLine(w, "Version: %d, Dirty: %t", status.Version, status.Dirty)
		})
	}

	step := func(use, short string, apply func(m *migrate.Migrate) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer m.Close()
				if err := apply(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("%s failed: %w", use, err)
				}
				return report(cmd, m)
			},
		}
	}

	cmd.AddCommand(step("up", "Apply all pending migrations", func(m *migrate.Migrate) error { return m.Up() }))
	cmd.AddCommand(step("down", "Roll back all migrations", func(m *migrate.Migrate) error { return m.Down() }))
	cmd.AddCommand(step("version", "Print the current schema version", func(*migrate.Migrate) error { return nil }))
	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version: %w", err)
			}
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Force(v); err != nil {
				return fmt.Errorf("force failed: %w", err)
			}
			return report(cmd, m)
		},
	})

	return cmd
}
