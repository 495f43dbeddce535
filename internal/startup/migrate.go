package startup

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/migrations"
)

// ApplyMigrations runs every embedded migration in filename order.
// Migrations are idempotent (IF NOT EXISTS), so rerunning them is safe.
func ApplyMigrations(pool *pgxpool.Pool, logPrefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		logger.Errorf("%sread migrations: %v", logPrefix, err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			logger.Errorf("%sread migration %s: %v", logPrefix, name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("%srun migration %s: %v", logPrefix, name, err)
			os.Exit(1)
		}
	}
	logger.Infof("%smigrations applied", logPrefix)
}
