package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Postgres stores keys in a key/value table.
type Postgres struct {
	pool      *pgxpool.Pool
	ownsPool  bool
	getSQL    string
	putSQL    string
	deleteSQL string
}

var _ Store = (*Postgres)(nil)

// ConnectPostgres opens a pool for dsn and prepares the table.
// The returned store closes the pool on Close.
func ConnectPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("kvstore: ping postgres: %w", err)
	}

	s, err := NewPostgres(ctx, pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.ownsPool = true
	return s, nil
}

// NewPostgres uses an existing pool and creates table if it does not exist.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, table string) (*Postgres, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	ident := pgx.Identifier{table}.Sanitize()

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, ident)
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("kvstore: create postgres table: %w", err)
	}

	return &Postgres{
		pool:      pool,
		getSQL:    fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, ident),
		putSQL:    fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, ident),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, ident),
	}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, p.getSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kvstore: postgres get %q: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key, value string) error {
	if _, err := p.pool.Exec(ctx, p.putSQL, key, value); err != nil {
		return fmt.Errorf("kvstore: postgres put %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, p.deleteSQL, key); err != nil {
		return fmt.Errorf("kvstore: postgres delete %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.ownsPool {
		p.pool.Close()
	}
	return nil
}
