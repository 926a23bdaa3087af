package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool sizes the database/sql connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

type PostgresDB struct {
	Conn   *sql.DB
	Ctx    context.Context
	Cancel context.CancelFunc
	URL    string
	Pool   Pool
}

func NewPostgresDB(url string, pool Pool) *PostgresDB {
	ctx, cancel := context.WithCancel(context.Background())
	return &PostgresDB{
		Ctx:    ctx,
		Cancel: cancel,
		URL:    url,
		Pool:   pool,
	}
}

// Connect opens the pool and waits up to five seconds for the first ping.
func (p *PostgresDB) Connect() error {
	conn, err := sql.Open("postgres", p.URL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if p.Pool.MaxOpen > 0 {
		conn.SetMaxOpenConns(p.Pool.MaxOpen)
	}
	if p.Pool.MaxIdle > 0 {
		conn.SetMaxIdleConns(p.Pool.MaxIdle)
	}
	if p.Pool.MaxLifetime > 0 {
		conn.SetConnMaxLifetime(p.Pool.MaxLifetime)
	}

	ctx, cancel := context.WithTimeout(p.Ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.Conn = conn
	return nil
}

func (p *PostgresDB) Disconnect() error {
	p.Cancel()
	if p.Conn != nil {
		return p.Conn.Close()
	}
	return nil
}

func (p *PostgresDB) GetContext() context.Context {
	return p.Ctx
}
