package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempizhere/linkward/internal/models"
	"go.uber.org/zap"
)

// Коды SQLSTATE, при которых хранилище считается временно недоступным
const (
	sqlStateLockNotAvailable     = "55P03"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateQueryCanceled        = "57014"
	sqlStateSerializationFailure = "40001"
)

const selectLinkQuery = `SELECT id, short_name, destination, admin_key, created_at, clicks, phishing
	FROM links WHERE short_name = $1`

// PostgresRepository реализует интерфейс Repository с использованием PostgreSQL
type PostgresRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database is nil")
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Get возвращает ссылку по имени
func (r *PostgresRepository) Get(ctx context.Context, name string) (models.Link, error) {
	var link models.Link
	err := r.db.QueryRowContext(ctx, selectLinkQuery, name).Scan(
		&link.ID, &link.ShortName, &link.Destination, &link.AdminKey,
		&link.CreatedAt, &link.Clicks, &link.Phishing,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get link from database", zap.String("short_name", name), zap.Error(err))
		return models.Link{}, mapError(err)
	}
	return link, nil
}

// GetAndIncrement возвращает ссылку и увеличивает счётчик переходов.
// Ошибка увеличения счётчика не мешает вернуть ссылку.
func (r *PostgresRepository) GetAndIncrement(ctx context.Context, name string) (models.Link, error) {
	link, err := r.Get(ctx, name)
	if err != nil {
		return models.Link{}, err
	}
	if link.Phishing {
		return link, nil
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE links SET clicks = clicks + 1 WHERE id = $1", link.ID); err != nil {
		r.logger.Info("Failed to increment a link: database is locked?", zap.String("short_name", name), zap.Error(err))
	}
	return link, nil
}

// InsertIfNotExists сохраняет ссылку, если имя свободно
func (r *PostgresRepository) InsertIfNotExists(ctx context.Context, link models.Link) (models.Link, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO links (short_name, destination, admin_key, created_at, clicks, phishing)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (short_name) DO NOTHING
		RETURNING id`,
		link.ShortName, link.Destination, link.AdminKey, link.CreatedAt, link.Clicks, link.Phishing,
	).Scan(&link.ID)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Link already exists", zap.String("short_name", link.ShortName))
		return models.Link{}, ErrLinkExists
	}
	if err != nil {
		r.logger.Error("Failed to save link to database", zap.String("short_name", link.ShortName), zap.Error(err))
		return models.Link{}, mapError(err)
	}
	return link, nil
}

// Delete удаляет ссылку по ID
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM links WHERE id = $1", id)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.Int64("id", id), zap.Error(err))
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// FlagPhishing помечает ссылку как фишинговую
func (r *PostgresRepository) FlagPhishing(ctx context.Context, name string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE links SET phishing = TRUE WHERE short_name = $1", name)
	if err != nil {
		r.logger.Error("Failed to flag link as phishing", zap.String("short_name", name), zap.Error(err))
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

// mapError переводит ошибки блокировок и таймаутов в ErrUnavailable
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateLockNotAvailable, sqlStateDeadlockDetected, sqlStateQueryCanceled, sqlStateSerializationFailure:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return err
}
