package sqlexec

import (
	"context"
	"time"
)

// SessionFactory hands out scoped sessions from a shared pool.
type SessionFactory interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is one checked-out connection running a single read-only query
// through a server-side cursor. Close must release the connection on every
// path and is safe to call more than once.
type Session interface {
	// Open applies the statement timeout and declares the cursor.
	Open(ctx context.Context, sql string, timeout time.Duration) error
	// Fetch returns up to n rows; fewer than n rows means the cursor is drained.
	Fetch(ctx context.Context, n int) (columns []string, rows [][]any, err error)
	Close(ctx context.Context)
}
