package a

import "sync"

type store struct {
	mu   sync.RWMutex
	data map[string]int
}

func (s *store) good(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

func (s *store) goodWrite(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key]++
}

func (s *store) manual(key string) {
	s.mu.Lock() // want `s.mu.Lock\(\) должен сопровождаться defer s.mu.Unlock\(\)`
	s.data[key]++
	s.mu.Unlock()
}

func (s *store) mismatched(key string) int {
	s.mu.RLock() // want `s.mu.RLock\(\) должен сопровождаться defer s.mu.RUnlock\(\)`
	defer s.mu.Unlock()
	return s.data[key]
}

func local() {
	var mu sync.Mutex
	func() {
		mu.Lock() // want `mu.Lock\(\) должен сопровождаться defer mu.Unlock\(\)`
	}()
}

type locker struct{}

func (locker) Lock() {}

func notSync() {
	var l locker
	l.Lock()
}
