// SPDX-License-Identifier: Apache-2.0

package db

import "context"

// DefaultLockID is the advisory lock key used to serialize engine work when
// no lock_id is configured.
const DefaultLockID int64 = 894321

// AcquireLock takes the session-level advisory lock identified by lockID,
// blocking until any other holder releases it. The lock belongs to the
// pinned connection and is released automatically if the session ends.
func (s *Session) AcquireLock(ctx context.Context, lockID int64) error {
	_, err := s.conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID)
	return err
}

// ReleaseLock releases the advisory lock identified by lockID.
func (s *Session) ReleaseLock(ctx context.Context, lockID int64) error {
	_, err := s.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID)
	return err
}

// WithLock runs f while holding the advisory lock identified by lockID. The
// lock is released on every exit path, including panics; a release failure is
// reported only when f itself succeeded.
func (s *Session) WithLock(ctx context.Context, lockID int64, f func(context.Context) error) (err error) {
	if err := s.AcquireLock(ctx, lockID); err != nil {
		return err
	}

	defer func() {
		if errUnlock := s.ReleaseLock(context.WithoutCancel(ctx), lockID); errUnlock != nil && err == nil {
			err = errUnlock
		}
	}()

	return f(ctx)
}
