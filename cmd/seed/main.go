// Command seed creates the demo admin, driver and client accounts. Running it
// again resets their passwords.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"delivery-service/internal/config"
	"delivery-service/internal/logging"
	"delivery-service/internal/users"
	"delivery-service/migrations"
	"delivery-service/pkg/db"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StorePostgres {
		return fmt.Errorf("seed needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}
	log, err := logging.New(cfg.IsDev())
	if err != nil {
		return err
	}
	defer log.Sync()

	database, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	svc := users.NewService(users.NewPGRepository(database.Pool), nil, log)
	seeded, err := svc.SeedAll(ctx, users.DemoUsers)
	if err != nil {
		return err
	}
	for _, u := range seeded {
		log.Info("seeded user", zap.String("email", u.Email), zap.String("role", string(u.Role)), zap.String("id", u.ID))
	}
	return nil
}
