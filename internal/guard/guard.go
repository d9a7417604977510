// Package guard содержит мьютекс с признаком «отравления».
//
// sync.Mutex не умеет сообщать об ошибке захвата, поэтому отказ блокировки
// моделируется так: если критическая секция запаниковала, мьютекс помечается
// отравленным и все последующие вызовы Do возвращают ErrPoisoned без выполнения
// переданной функции. Вызывающая сторона трактует это как промах или no-op.
package guard

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoisoned возвращается, если предыдущая критическая секция завершилась паникой
var ErrPoisoned = errors.New("mutex is poisoned")

// Mutex защищает одну область состояния компонента
type Mutex struct {
	mu       sync.Mutex
	poisoned atomic.Bool
}

// Do выполняет fn под блокировкой.
// Паника внутри fn перехватывается, мьютекс становится отравленным.
func (m *Mutex) Do(fn func()) (err error) {
	if m.poisoned.Load() {
		return ErrPoisoned
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Повторная проверка: другой вызов мог отравить мьютекс, пока мы ждали
	if m.poisoned.Load() {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			m.poisoned.Store(true)
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()

	fn()
	return nil
}

// Poisoned сообщает, отравлен ли мьютекс
func (m *Mutex) Poisoned() bool {
	return m.poisoned.Load()
}
