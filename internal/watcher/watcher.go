// Package watcher обнаруживает всплески переходов по ярлыку с множества
// разных адресов за короткое время - признак активной фишинговой рассылки.
//
// Это только сигнал для администратора: переходы не блокируются.
package watcher

import (
	"time"

	"github.com/tempizhere/linkward/internal/guard"
	"github.com/tempizhere/linkward/internal/metrics"
	"github.com/tempizhere/linkward/internal/models"
	"go.uber.org/zap"
)

// visit - один учтённый переход
type visit struct {
	at      time.Time
	visitor string
}

// Watcher хранит недавние переходы по каждому ярлыку под одним мьютексом
type Watcher struct {
	mu        guard.Mutex
	visits    map[string][]visit
	threshold int
	window    time.Duration
	logger    *zap.Logger
}

// NewWatcher создаёт наблюдатель.
// threshold - число различных посетителей, window - ширина окна.
func NewWatcher(threshold int, window time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		visits:    make(map[string][]visit),
		threshold: threshold,
		window:    window,
		logger:    logger,
	}
}

// Record учитывает переход посетителя по ярлыку name.
// Ошибки не возвращаются: при отказе блокировки переход просто не учитывается.
func (w *Watcher) Record(name string, info models.LinkInfo, visitor string, now time.Time) {
	alert := false
	err := w.mu.Do(func() {
		events := w.visits[name]

		cutoff := now.Add(-w.window)
		kept := events[:0]
		for _, v := range events {
			if v.at.After(cutoff) {
				kept = append(kept, v)
			}
		}
		clear(events[len(kept):])
		events = kept

		if len(events) >= w.threshold {
			alert = true
			clear(events)
			events = events[:0]
		}

		seen := false
		for _, v := range events {
			if v.visitor == visitor {
				seen = true
				break
			}
		}
		if !seen {
			events = append(events, visit{at: now, visitor: visitor})
		}
		w.visits[name] = events
	})
	if err != nil {
		w.logger.Error("Failed to get the watcher lock", zap.String("short_name", name), zap.Error(err))
		metrics.LockFailures.WithLabelValues("watcher").Inc()
		return
	}

	if alert {
		metrics.SuspiciousAlerts.Inc()
		w.logger.Warn("Suspicious activity detected",
			zap.String("link", info.ShortURL),
			zap.String("redirects_to", info.Destination),
			zap.String("admin_link", info.AdminLink),
			zap.String("flag_as_phishing", info.PhishLink),
		)
	}
}

// Visits возвращает число учтённых посетителей ярлыка
func (w *Watcher) Visits(name string) int {
	var n int
	if err := w.mu.Do(func() { n = len(w.visits[name]) }); err != nil {
		return 0
	}
	return n
}
