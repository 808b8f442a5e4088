// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/lib/pq"
)

const (
	lockNotAvailableErrorCode pq.ErrorCode = "55P03"
	maxBackoffDuration                     = 1 * time.Minute
	backoffInterval                        = 1 * time.Second
)

// Querier is the subset of database operations shared by a Session (running
// in autocommit mode) and an open *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session owns a single pinned database connection for the duration of one
// engine invocation. Statements issued directly on the session run in
// autocommit mode; WithTransaction scopes work to an explicit transaction on
// the same connection. The session is not safe for concurrent use.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
}

// Open connects to the database described by conninfo (a libpq URL or
// key/value conninfo string) and pins a single connection.
func Open(ctx context.Context, conninfo string) (*Session, error) {
	dsn, err := pq.ParseURL(conninfo)
	if err != nil {
		dsn = conninfo
	}

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		pool.Close()
		return nil, err
	}

	return &Session{db: pool, conn: conn}, nil
}

// ExecContext runs query in autocommit mode on the pinned connection,
// retrying on lock_timeout errors with exponential backoff.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		res, err := s.conn.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}

		pqErr := &pq.Error{}
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableErrorCode {
			if err := sleepCtx(ctx, b.Duration()); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}
}

// QueryContext runs query on the pinned connection, retrying on lock_timeout
// errors.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		rows, err := s.conn.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		pqErr := &pq.Error{}
		if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailableErrorCode {
			if err := sleepCtx(ctx, b.Duration()); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}
}

// QueryRowContext runs query on the pinned connection.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// WithTransaction runs f inside a transaction on the pinned connection,
// committing when f returns nil and rolling back otherwise. The connection is
// back in autocommit mode when WithTransaction returns.
func (s *Session) WithTransaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := f(ctx, tx); err != nil {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			return fmt.Errorf("rolling back transaction: %w (while handling: %v)", errRollback, err)
		}
		return err
	}

	return tx.Commit()
}

func (s *Session) Close() error {
	err := s.conn.Close()
	if errClose := s.db.Close(); errClose != nil && err == nil {
		err = errClose
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
