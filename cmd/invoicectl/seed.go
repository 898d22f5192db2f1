package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/invoicing-api/internal/domain/entity"
	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// Tenant de desarrollo: se resuelve desde http://localhost.
const (
	seedSubdomain  = "localhost"
	seedTenantName = "Local Tenant"
)

func newSeedCommand(open opener, newLogger func() *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Crea o actualiza el tenant de desarrollo (localhost)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger()
			db, closeDB, err := open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer closeDB()

			tenant := &entity.Tenant{Name: seedTenantName, Subdomain: seedSubdomain}
			if err := postgres.NewTenantRepository(db).UpsertBySubdomain(cmd.Context(), tenant); err != nil {
				return err
			}
			cmd.Printf("tenant %q (%s) listo: %s\n", tenant.Name, tenant.Subdomain, tenant.ID)
			return nil
		},
	}
}
