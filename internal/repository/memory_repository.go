package repository

import (
	"context"
	"sync"

	"github.com/tempizhere/linkward/internal/models"
)

// MemoryRepository реализует интерфейс Repository с использованием map
type MemoryRepository struct {
	store  map[string]models.Link // short_name -> link
	nextID int64
	mutex  sync.RWMutex
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		store:  make(map[string]models.Link),
		nextID: 1,
	}
}

// Get возвращает ссылку по имени
func (r *MemoryRepository) Get(_ context.Context, name string) (models.Link, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	link, exists := r.store[name]
	if !exists {
		return models.Link{}, ErrNotFound
	}
	return cloneLink(link), nil
}

// GetAndIncrement возвращает ссылку и увеличивает счётчик переходов
func (r *MemoryRepository) GetAndIncrement(_ context.Context, name string) (models.Link, error) {
	link, _, err := r.getAndIncrement(name)
	return link, err
}

// getAndIncrement возвращает ссылку до увеличения и признак изменения записи
func (r *MemoryRepository) getAndIncrement(name string) (models.Link, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[name]
	if !exists {
		return models.Link{}, false, ErrNotFound
	}
	if link.Phishing {
		return cloneLink(link), false, nil
	}
	updated := link
	updated.Clicks++
	r.store[name] = updated
	return cloneLink(link), true, nil
}

// InsertIfNotExists сохраняет ссылку, если имя свободно
func (r *MemoryRepository) InsertIfNotExists(_ context.Context, link models.Link) (models.Link, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.store[link.ShortName]; exists {
		return models.Link{}, ErrLinkExists
	}
	link.ID = r.nextID
	r.nextID++
	r.store[link.ShortName] = cloneLink(link)
	return link, nil
}

// Delete удаляет ссылку по ID
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, link := range r.store {
		if link.ID == id {
			delete(r.store, name)
			return nil
		}
	}
	return ErrNotFound
}

// FlagPhishing помечает ссылку как фишинговую
func (r *MemoryRepository) FlagPhishing(_ context.Context, name string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[name]
	if !exists {
		return 0, nil
	}
	link.Phishing = true
	r.store[name] = link
	return 1, nil
}

// restore кладёт запись как есть, сохраняя её ID
func (r *MemoryRepository) restore(link models.Link) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, existing := range r.store {
		if existing.ID == link.ID && name != link.ShortName {
			delete(r.store, name)
		}
	}
	r.store[link.ShortName] = link
	if link.ID >= r.nextID {
		r.nextID = link.ID + 1
	}
}

// remove удаляет запись по ID и возвращает её прежнее состояние
func (r *MemoryRepository) remove(id int64) (models.Link, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, link := range r.store {
		if link.ID == id {
			delete(r.store, name)
			return link, true
		}
	}
	return models.Link{}, false
}

func cloneLink(link models.Link) models.Link {
	if link.AdminKey != nil {
		link.AdminKey = append([]byte(nil), link.AdminKey...)
	}
	return link
}
