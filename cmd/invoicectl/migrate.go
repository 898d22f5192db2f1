package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

func newMigrateCommand(open opener, newLogger func() *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica, revierte o lista las migraciones del esquema",
	}

	withMigrator := func(run func(cmd *cobra.Command, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			log := newLogger()
			db, closeDB, err := open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer closeDB()
			return run(cmd, postgres.NewMigrator(db, log))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes en orden",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
				applied, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					cmd.Println("sin migraciones pendientes")
					return nil
				}
				for _, v := range applied {
					cmd.Println("aplicada", v)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revierte la última migración aplicada",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
				version, err := m.Down(cmd.Context())
				if err != nil {
					return err
				}
				if version == "" {
					cmd.Println("no hay migraciones aplicadas")
					return nil
				}
				cmd.Println("revertida", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Lista las migraciones y si están aplicadas",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *postgres.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNOMBRE\tAPLICADA")
				for _, s := range statuses {
					applied := "pendiente"
					if s.Applied && s.AppliedAt != nil {
						applied = s.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.Version, s.Name, applied)
				}
				return w.Flush()
			}),
		},
	)
	return cmd
}
