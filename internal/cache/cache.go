// Package cache содержит резервный кеш ссылок, используемый, когда
// основное хранилище не отвечает вовремя или заблокировано.
//
// Save никогда не обновляет существующую запись. Изменения состояния ссылки
// (пометка фишинга, удаление) доводятся до кеша через Replace и Forget.
//
// Все данные кеша живут только в памяти процесса и защищены одним мьютексом.
package cache

import (
	"slices"

	"github.com/tempizhere/linkward/internal/guard"
	"github.com/tempizhere/linkward/internal/metrics"
	"github.com/tempizhere/linkward/internal/models"
	"go.uber.org/zap"
)

// LinkCache хранит ограниченный список ссылок в порядке добавления (старые первыми)
type LinkCache struct {
	mu      guard.Mutex
	links   []models.Link
	maxSize int
	logger  *zap.Logger
}

// NewLinkCache создаёт кеш с заданным максимальным размером
func NewLinkCache(maxSize int, logger *zap.Logger) *LinkCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkCache{
		links:   make([]models.Link, 0, maxSize+1),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Check ищет ссылку по имени ярлыка.
// Отказ блокировки трактуется как промах.
func (c *LinkCache) Check(name string) (models.Link, bool) {
	var (
		link  models.Link
		found bool
	)
	err := c.mu.Do(func() {
		for _, l := range c.links {
			if l.ShortName == name {
				link, found = l, true
				return
			}
		}
	})
	if err != nil {
		c.logger.Error("Failed to get the link cache lock", zap.String("short_name", name), zap.Error(err))
		metrics.LockFailures.WithLabelValues("cache").Inc()
		metrics.CacheLookups.WithLabelValues("poisoned").Inc()
		return models.Link{}, false
	}
	if found {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return link, found
}

// Save добавляет ссылку в конец списка, если записи с таким ID ещё нет.
//
// При переполнении сохраняются только первые maxSize/10 записей (самые старые),
// остальные, включая только что добавленную, отбрасываются. При maxSize < 10
// кеш очищается целиком.
func (c *LinkCache) Save(link models.Link) {
	var size int
	evicted := false
	err := c.mu.Do(func() {
		exists := false
		for _, l := range c.links {
			if l.ID == link.ID {
				exists = true
				break
			}
		}
		if !exists {
			c.links = append(c.links, link)
		}

		if len(c.links) > c.maxSize && len(c.links) > c.maxSize-c.maxSize/10 {
			toRemove := c.maxSize / 10
			clear(c.links[toRemove:])
			c.links = c.links[:toRemove]
			evicted = true
		}
		size = len(c.links)
	})
	if err != nil {
		c.logger.Error("Failed to get the link cache lock", zap.String("short_name", link.ShortName), zap.Error(err))
		metrics.LockFailures.WithLabelValues("cache").Inc()
		return
	}
	if evicted {
		c.logger.Debug("Link cache evicted", zap.Int("remaining", size))
		metrics.CacheEvictions.Inc()
	}
	metrics.CacheSize.Set(float64(size))
}

// Replace заменяет запись с тем же ID новым состоянием ссылки.
// Если записи нет, кеш не меняется.
func (c *LinkCache) Replace(link models.Link) bool {
	replaced := false
	err := c.mu.Do(func() {
		for i := range c.links {
			if c.links[i].ID == link.ID {
				c.links[i] = link
				replaced = true
				return
			}
		}
	})
	if err != nil {
		c.logger.Error("Failed to get the link cache lock", zap.String("short_name", link.ShortName), zap.Error(err))
		metrics.LockFailures.WithLabelValues("cache").Inc()
		return false
	}
	return replaced
}

// Forget удаляет запись по имени ярлыка, сохраняя порядок остальных
func (c *LinkCache) Forget(name string) bool {
	var (
		removed bool
		size    int
	)
	err := c.mu.Do(func() {
		for i := range c.links {
			if c.links[i].ShortName == name {
				c.links = slices.Delete(c.links, i, i+1)
				removed = true
				break
			}
		}
		size = len(c.links)
	})
	if err != nil {
		c.logger.Error("Failed to get the link cache lock", zap.String("short_name", name), zap.Error(err))
		metrics.LockFailures.WithLabelValues("cache").Inc()
		return false
	}
	metrics.CacheSize.Set(float64(size))
	return removed
}

// Len возвращает текущее число записей; при отказе блокировки - 0
func (c *LinkCache) Len() int {
	var n int
	if err := c.mu.Do(func() { n = len(c.links) }); err != nil {
		return 0
	}
	return n
}
