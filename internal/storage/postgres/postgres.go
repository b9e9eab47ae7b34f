// Package postgres persists tactics snapshots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/altai/internal/config"
)

// Pool is a connected pgx pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects a pool sized by cfg and pings it once.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a reachable Pool or a non-nil error; nothing is
// left open on error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: parsing config for %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime

	p, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("postgres.NewPool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres.NewPool: ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Pool{pool: p}, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Pool.Health: %w", err)
	}
	return nil
}

// Close releases all connections. The pool is unusable afterwards.
func (p *Pool) Close() { p.pool.Close() }

// DB exposes the pgx pool to repositories.
func (p *Pool) DB() *pgxpool.Pool { return p.pool }
