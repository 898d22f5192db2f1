// invoicectl tareas de operación sobre la base de datos: migraciones y datos iniciales.
//
// Uso:
//
//	invoicectl migrate up|down|status
//	invoicectl seed
//
// Lee .env (si existe) y luego las mismas variables de entorno que la API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jhoicas/invoicing-api/internal/infrastructure/postgres"
	"github.com/jhoicas/invoicing-api/pkg/config"
	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// opener abre la base de datos; el cierre lo hace la función devuelta.
type opener func(ctx context.Context, log *logger.Logger) (*gorm.DB, func(), error)

func main() {
	// .env es opcional: sin archivo se usan solo las variables de entorno.
	_ = godotenv.Load()

	cmd := newRootCommand(openPostgres, os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand(open opener, out io.Writer) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Operación de la base de datos de facturación",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "nivel de log (debug, info, warn, error)")
	root.SetOut(out)

	newLogger := func() *logger.Logger {
		return logger.New(logger.Config{Env: "development", Level: logLevel, Service: "invoicectl", Output: os.Stderr})
	}
	root.AddCommand(newMigrateCommand(open, newLogger), newSeedCommand(open, newLogger))
	return root
}

func openPostgres(ctx context.Context, log *logger.Logger) (*gorm.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	db, err := postgres.NewGorm(pool, log.Named("gorm"), nil)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return db, pool.Close, nil
}
