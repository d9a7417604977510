package repository

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tempizhere/linkward/internal/models"
	"go.uber.org/zap"
)

// Операции журнала
const (
	opPut    = "put"
	opDelete = "delete"
)

// LinkRecord представляет запись в JSON-файле.
// Файл является журналом: последняя запись с данным ID определяет состояние ссылки.
type LinkRecord struct {
	Op          string    `json:"op"`
	ID          int64     `json:"id"`
	ShortName   string    `json:"short_name,omitempty"`
	Destination string    `json:"destination,omitempty"`
	AdminKey    string    `json:"admin_key,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	Clicks      int64     `json:"clicks,omitempty"`
	Phishing    bool      `json:"phishing,omitempty"`
}

func newPutRecord(link models.Link) LinkRecord {
	return LinkRecord{
		Op:          opPut,
		ID:          link.ID,
		ShortName:   link.ShortName,
		Destination: link.Destination,
		AdminKey:    link.EncodedAdminKey(),
		CreatedAt:   link.CreatedAt,
		Clicks:      link.Clicks,
		Phishing:    link.Phishing,
	}
}

func (rec LinkRecord) link() (models.Link, error) {
	key, err := base64.RawURLEncoding.DecodeString(rec.AdminKey)
	if err != nil {
		return models.Link{}, err
	}
	return models.Link{
		ID:          rec.ID,
		ShortName:   rec.ShortName,
		Destination: rec.Destination,
		AdminKey:    key,
		CreatedAt:   rec.CreatedAt,
		Clicks:      rec.Clicks,
		Phishing:    rec.Phishing,
	}, nil
}

// FileRepository реализует интерфейс Repository с использованием файла.
// Состояние держится в памяти, каждое изменение дописывается в файл.
type FileRepository struct {
	mem      *MemoryRepository
	filePath string
	logger   *zap.Logger
	mutex    sync.Mutex // сериализует запись в файл
}

// NewFileRepository создаёт новый экземпляр FileRepository и восстанавливает состояние из файла
func NewFileRepository(filePath string, logger *zap.Logger) (*FileRepository, error) {
	repo := &FileRepository{
		mem:      NewMemoryRepository(),
		filePath: filePath,
		logger:   logger,
	}

	// Создаём директорию, если не существует
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			newFile, err := os.Create(filePath)
			if err != nil {
				return nil, err
			}
			newFile.Close()
			return repo, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record LinkRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			// Пропускаем некорректные строки и логируем это
			repo.logger.Warn("Skipping invalid JSON line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		switch record.Op {
		case opPut:
			link, err := record.link()
			if err != nil {
				repo.logger.Warn("Skipping record with invalid admin key", zap.Int64("id", record.ID), zap.Error(err))
				continue
			}
			repo.mem.restore(link)
		case opDelete:
			repo.mem.remove(record.ID)
		default:
			repo.logger.Warn("Skipping record with unknown op", zap.String("op", record.Op))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return repo, nil
}

// Get возвращает ссылку по имени
func (r *FileRepository) Get(ctx context.Context, name string) (models.Link, error) {
	return r.mem.Get(ctx, name)
}

// GetAndIncrement возвращает ссылку и сохраняет увеличенный счётчик
func (r *FileRepository) GetAndIncrement(_ context.Context, name string) (models.Link, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, changed, err := r.mem.getAndIncrement(name)
	if err != nil || !changed {
		return link, err
	}
	updated := link
	updated.Clicks++
	if err := r.append(newPutRecord(updated)); err != nil {
		r.logger.Error("Failed to persist click counter", zap.String("short_name", name), zap.Error(err))
	}
	return link, nil
}

// InsertIfNotExists сохраняет ссылку в памяти и дописывает её в файл
func (r *FileRepository) InsertIfNotExists(ctx context.Context, link models.Link) (models.Link, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	saved, err := r.mem.InsertIfNotExists(ctx, link)
	if err != nil {
		if errors.Is(err, ErrLinkExists) {
			r.logger.Info("Link already exists", zap.String("short_name", link.ShortName))
		}
		return models.Link{}, err
	}
	if err := r.append(newPutRecord(saved)); err != nil {
		r.mem.remove(saved.ID)
		return models.Link{}, err
	}
	return saved, nil
}

// Delete удаляет ссылку и записывает это в журнал.
// Если запись в журнал не удалась, ссылка возвращается в память.
func (r *FileRepository) Delete(_ context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed, ok := r.mem.remove(id)
	if !ok {
		return ErrNotFound
	}
	if err := r.append(LinkRecord{Op: opDelete, ID: id}); err != nil {
		r.mem.restore(removed)
		return err
	}
	return nil
}

// FlagPhishing помечает ссылку как фишинговую и записывает это в журнал
func (r *FileRepository) FlagPhishing(ctx context.Context, name string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	prev, err := r.mem.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	flagged := cloneLink(prev)
	flagged.Phishing = true
	if err := r.append(newPutRecord(flagged)); err != nil {
		return 0, err
	}
	r.mem.restore(flagged)
	return 1, nil
}

// append дописывает запись в конец файла; вызывается под r.mutex
func (r *FileRepository) append(record LinkRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	file, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(data)
	return err
}
