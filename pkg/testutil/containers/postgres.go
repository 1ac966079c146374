//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"portalgate/internal/platform/config"
	"portalgate/internal/platform/postgres"
)

// PostgresContainer is a migrated database opened the way the server opens
// its own.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

func newPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("portalgate"),
		tcpostgres.WithUsername("portalgate"),
		tcpostgres.WithPassword("portalgate"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
	}
	require.NoError(t, err, "postgres connection string")

	db, err := postgres.Open(ctx, config.PostgresConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 2})
	if err == nil {
		err = postgres.Migrate(ctx, db)
	}
	if err != nil {
		_ = container.Terminate(ctx)
	}
	require.NoError(t, err, "open and migrate postgres")

	return &PostgresContainer{Container: container, DB: db}
}

// TruncateTables empties the named tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
