// Package metrics содержит Prometheus-метрики подсистемы защиты от злоупотреблений
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups считает обращения к резервному кешу ссылок.
	// Labels: result (hit, miss, poisoned)
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkward",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Total link cache lookups by result",
	}, []string{"result"})

	// CacheEvictions считает срабатывания вытеснения
	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "linkward",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Total link cache eviction passes",
	})

	// CacheSize показывает текущее число записей в кеше
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "linkward",
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Current number of cached links",
	})

	// SuspiciousAlerts считает обнаруженные всплески переходов
	SuspiciousAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "linkward",
		Subsystem: "watcher",
		Name:      "alerts_total",
		Help:      "Total suspicious visit bursts detected",
	})

	// PolicyViolations считает отказы политики.
	// Labels: category (blocked_name, shortener, freehost, spam)
	PolicyViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkward",
		Subsystem: "policy",
		Name:      "violations_total",
		Help:      "Total policy violations by category",
	}, []string{"category"})

	// LockFailures считает отказы защищённых областей.
	// Labels: component (cache, watcher)
	LockFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkward",
		Subsystem: "core",
		Name:      "lock_failures_total",
		Help:      "Total guarded region failures by component",
	}, []string{"component"})
)
