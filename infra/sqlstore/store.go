// Package sqlstore implements core/store on database/sql. SQLite (modernc)
// is the default backend; PostgreSQL is reached through the pgx stdlib
// driver. Both share one schema and one set of queries written with `?`
// placeholders.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/fleetops/core/factory"
	"github.com/kilianp07/fleetops/core/store"
)

type dialect struct {
	name   string
	driver string
	serial string
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite", serial: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{name: "postgres", driver: "pgx", serial: "BIGSERIAL PRIMARY KEY"}
)

// rebind rewrites `?` placeholders into the dialect's syntax.
func (d dialect) rebind(q string) string {
	if d.name != "postgres" {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements store.Repo over a *sql.DB or a *sql.Tx.
type repo struct {
	q querier
	d dialect
}

func (r *repo) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.d.rebind(query), args...)
}

func (r *repo) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.d.rebind(query), args...)
}

func (r *repo) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.d.rebind(query), args...)
}

// insertID runs an INSERT ... RETURNING id statement.
func (r *repo) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// Store is a store.Store backed by database/sql.
type Store struct {
	*repo
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// applies the schema. Foreign keys are enforced and the pool is limited to a
// single connection so writers serialize.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return open(ctx, sqliteDialect, dsn, Options{MaxOpenConns: 1})
}

// OpenPostgres connects to PostgreSQL using a pgx connection string and
// applies the schema.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	return open(ctx, postgresDialect, dsn, opts)
}

func open(ctx context.Context, d dialect, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	s := &Store{repo: &repo{q: db, d: d}, db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Dialect returns "sqlite" or "postgres".
func (s *Store) Dialect() string { return s.d.name }

// InTx runs fn in a transaction. Any error or panic rolls back.
func (s *Store) InTx(ctx context.Context, fn func(store.Repo) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(&repo{q: tx, d: s.d}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type sqliteConf struct {
	Path string `json:"path"`
}

type postgresConf struct {
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

func init() {
	store.MustRegister("sqlite", func(conf map[string]any) (store.Store, error) {
		var c sqliteConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite: path is required")
		}
		return OpenSQLite(context.Background(), c.Path)
	})
	store.MustRegister("postgres", func(conf map[string]any) (store.Store, error) {
		var c postgresConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres: dsn is required")
		}
		return OpenPostgres(context.Background(), c.DSN, Options{
			MaxOpenConns:    c.MaxOpenConns,
			MaxIdleConns:    c.MaxIdleConns,
			ConnMaxLifetime: c.ConnMaxLifetime,
		})
	})
}
