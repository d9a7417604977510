package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tempizhere/linkward/internal/models"
)

var (
	// ErrNotFound возвращается, если ссылки с таким именем нет
	ErrNotFound = errors.New("link not found")
	// ErrLinkExists возвращается при попытке создать уже занятый ярлык
	ErrLinkExists = errors.New("link already exists")
	// ErrUnavailable означает, что хранилище заблокировано или не ответило вовремя.
	// В этом случае вызывающая сторона может обратиться к резервному кешу.
	ErrUnavailable = errors.New("storage unavailable")
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// Repository определяет интерфейс для работы с хранилищем ссылок
type Repository interface {
	// Get возвращает ссылку по имени ярлыка
	Get(ctx context.Context, name string) (models.Link, error)
	// GetAndIncrement возвращает ссылку и увеличивает счётчик переходов.
	// Счётчик фишинговых ссылок не увеличивается.
	GetAndIncrement(ctx context.Context, name string) (models.Link, error)
	// InsertIfNotExists сохраняет новую ссылку и возвращает её с присвоенным ID
	InsertIfNotExists(ctx context.Context, link models.Link) (models.Link, error)
	// Delete удаляет ссылку по ID
	Delete(ctx context.Context, id int64) error
	// FlagPhishing помечает ссылку как фишинговую и возвращает число изменённых записей
	FlagPhishing(ctx context.Context, name string) (int64, error)
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// PingContext проверяет соединение с базой данных
	PingContext(ctx context.Context) error
	// Close закрывает соединение с базой данных
	Close() error
	// ExecContext выполняет SQL-команду без возврата результатов
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	// QueryRowContext выполняет SQL-запрос и возвращает одну строку результата
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
