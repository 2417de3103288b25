package sqlexec

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cursorName = "agent_cursor"

// PgxSessions opens read-only transactions on a pgx pool.
type PgxSessions struct {
	pool *pgxpool.Pool
}

func NewPgxSessions(pool *pgxpool.Pool) *PgxSessions {
	return &PgxSessions{pool: pool}
}

func (f *PgxSessions) Acquire(ctx context.Context) (Session, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &pgxSession{conn: conn}, nil
}

type pgxSession struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

func (s *pgxSession) Open(ctx context.Context, sql string, timeout time.Duration) error {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read-only transaction: %w", err)
	}
	s.tx = tx

	if timeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DECLARE %s NO SCROLL CURSOR FOR %s", cursorName, sql)); err != nil {
		return fmt.Errorf("declare cursor: %w", err)
	}
	return nil
}

func (s *pgxSession) Fetch(ctx context.Context, n int) ([]string, [][]any, error) {
	if s.tx == nil {
		return nil, nil, fmt.Errorf("fetch before open")
	}

	rows, err := s.tx.Query(ctx, fmt.Sprintf("FETCH %d FROM %s", n, cursorName))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, out, nil
}

func (s *pgxSession) Close(ctx context.Context) {
	if s.tx != nil {
		_ = s.tx.Rollback(ctx)
		s.tx = nil
	}
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
}
