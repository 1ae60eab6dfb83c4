package health

import (
	"context"
	"database/sql"
)

// DBChecker reports whether the Postgres backing store is reachable.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker wraps the given connection pool in a checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database. The caller bounds the wait via ctx.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
