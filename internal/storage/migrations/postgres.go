package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Every file uses IF NOT EXISTS, so re-running is a no-op.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, log zerolog.Logger) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		log.Debug().Str("migration", file).Msg("applied postgres migration")
	}

	return nil
}
