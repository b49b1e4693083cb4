package counter

import (
	"context"

	"quorum/api/internal/store"
)

// Postgres falls back to the questions table when redis is not configured.
// The UPDATE applies the increment in the database, so it stays atomic.
type Postgres struct {
	store *store.PostgresStore
}

func NewPostgres(s *store.PostgresStore) *Postgres {
	return &Postgres{store: s}
}

// Increment bumps the stored count. The base is ignored: the questions
// table already is the base.
func (c *Postgres) Increment(ctx context.Context, questionID string, _ int64) (int64, error) {
	return c.store.IncrementViewCount(ctx, questionID)
}
