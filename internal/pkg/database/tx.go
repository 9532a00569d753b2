package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

// SQLSTATE codes inspected by the store.
const (
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
)

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
// Repositories accept it so the same query runs inside or outside a transaction.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxRunner runs fn inside one atomic unit of work.
// fn may be invoked more than once and must not keep side effects outside q.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// Store runs serializable transactions and retries them on conflict.
type Store struct {
	db               *sqlx.DB
	maxAttempts      int
	backoff          time.Duration
	retryConstraints map[string]struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxAttempts bounds the number of attempts per transaction.
func WithMaxAttempts(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between attempts.
func WithBackoff(d time.Duration) StoreOption {
	return func(s *Store) {
		if d >= 0 {
			s.backoff = d
		}
	}
}

// WithRetryOnConstraint treats a unique violation of the named constraint
// as a lost race and retries the transaction.
func WithRetryOnConstraint(names ...string) StoreOption {
	return func(s *Store) {
		for _, n := range names {
			s.retryConstraints[n] = struct{}{}
		}
	}
}

// NewStore creates a transactional store over db.
func NewStore(db *sqlx.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:               db,
		maxAttempts:      5,
		backoff:          10 * time.Millisecond,
		retryConstraints: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the pool for reads that need no transaction.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn in a SERIALIZABLE transaction. Serialization failures,
// deadlocks and configured unique violations are retried with jittered
// backoff; once attempts run out the error wraps apperr.ErrStoreUnavailable.
func (s *Store) WithTx(ctx context.Context, fn func(q Querier) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !s.retryable(err) {
			return err
		}
		lastErr = err

		log.Debug().Err(err).Int("attempt", attempt).Msg("transaction conflict, retrying")

		if attempt < s.maxAttempts {
			if err := s.sleep(ctx, attempt); err != nil {
				return err
			}
		}
	}

	log.Warn().Err(lastErr).Int("attempts", s.maxAttempts).Msg("transaction retries exhausted")
	return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, lastErr)
}

func (s *Store) runOnce(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return true
	case CodeUniqueViolation:
		_, ok := s.retryConstraints[pqErr.Constraint]
		return ok
	}
	return false
}

func (s *Store) sleep(ctx context.Context, attempt int) error {
	if s.backoff == 0 {
		return ctx.Err()
	}
	d := s.backoff * time.Duration(1<<(attempt-1))
	d += time.Duration(rand.Int63n(int64(s.backoff)))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsUniqueViolation reports whether err is a unique violation, optionally
// restricted to one constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == CodeForeignKeyViolation
}
