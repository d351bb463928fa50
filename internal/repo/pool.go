package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// connectAttempts bounds how long OpenPool waits for Postgres: with a 250ms
// exponential base the last retry fires roughly 16s after the first.
const connectAttempts = 6

// OpenPool creates a pgx pool for dsn and pings it until the database
// answers, backing off exponentially. It gives up after connectAttempts
// retries or when ctx is done. The caller closes the pool.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenPool: %w", err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("repo.OpenPool: ping: %w", err)
	}
	return pool, nil
}
