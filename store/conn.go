// Package store implements C2: a typed, cursor-paginated CRUD adapter over
// Postgres for every entity in model. It carries no business rules — those
// live in rolegraph, rbac, oauth2, invite, and session. Unique-constraint
// violations become apperror.KindConflict, missing rows apperror.KindNotFound,
// and Connect's failures apperror.KindUnavailable; other database errors are
// wrapped as apperror.KindInternal (Health returns the ping error as is).
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"iamkernel/apperror"
)

// Store wraps the connection pool shared by every repository in this
// package. One Store is created at boot and handed to every repository
// constructor, mirroring the teacher's pgxpool.Pool-per-repository wiring.
type Store struct {
	Pool *pgxpool.Pool
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx. Repository methods
// that need to participate in a caller-managed transaction (role update +
// cycle check being the motivating case) are written against this interface
// instead of against *pgxpool.Pool directly.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BeginTx starts a transaction on the shared pool. Callers are responsible
// for deferring Rollback and calling Commit, the same pattern
// RoleAssignmentRepository.CreateWithMembership uses internally.
func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.Pool.Begin(ctx)
}

// Connect opens a pooled connection to databaseURL and verifies it with a
// ping, the same connect-then-ping sequence as the teacher's
// PostgresProvider.Connect.
func Connect(ctx context.Context, databaseURL string, maxConns, minConns int32) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to parse DATABASE_URL", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to ping database", err)
	}

	log.Printf("store: connected to postgres")
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
		log.Printf("store: connection pool closed")
	}
}

// Health is consulted by the /health endpoint.
func (s *Store) Health(ctx context.Context) error {
	if s.Pool == nil {
		return fmt.Errorf("store not connected")
	}
	return s.Pool.Ping(ctx)
}
