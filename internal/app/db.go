package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/linkward/internal/repository"
)

// lockTimeout ограничивает ожидание блокировок строк.
// По его истечении запрос завершается с SQLSTATE 55P03 и сервис переходит на кеш.
const lockTimeout = 2 * time.Second

const createLinksTable = `
CREATE TABLE IF NOT EXISTS links (
    id BIGSERIAL PRIMARY KEY,
    short_name VARCHAR(80) UNIQUE NOT NULL,
    destination TEXT NOT NULL,
    admin_key BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    clicks BIGINT NOT NULL DEFAULT 0,
    phishing BOOLEAN NOT NULL DEFAULT FALSE
)`

// NewDB создаёт новое подключение к базе данных и готовит схему
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if connConfig.RuntimeParams == nil {
		connConfig.RuntimeParams = make(map[string]string)
	}
	connConfig.RuntimeParams["lock_timeout"] = lockTimeout.String()

	conn := stdlib.OpenDB(*connConfig)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := InitSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// InitSchema создаёт таблицу ссылок, если её нет
func InitSchema(ctx context.Context, db repository.Database) error {
	_, err := db.ExecContext(ctx, createLinksTable)
	return err
}
