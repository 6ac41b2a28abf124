package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// expiringMap is a string map whose entries vanish after their TTL.
// A background goroutine sweeps expired entries until close is called.
type expiringMap struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newExpiringMap(sweepEvery time.Duration) *expiringMap {
	m := &expiringMap{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.sweepLoop(sweepEvery)
	return m
}

// setNX stores value unless a live entry exists. It reports whether it stored.
func (m *expiringMap) setNX(key, value string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.entries[key]; ok && e.live(now) {
		return false
	}
	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *expiringMap) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !e.live(time.Now()) {
		return "", false
	}
	return e.value, true
}

// deleteIf removes key only while it holds value
func (m *expiringMap) deleteIf(key, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !e.live(time.Now()) || e.value != value {
		return false
	}
	delete(m.entries, key)
	return true
}

func (m *expiringMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *expiringMap) close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
	})
}

func (m *expiringMap) sweepLoop(every time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *expiringMap) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.entries {
		if !e.live(now) {
			delete(m.entries, key)
		}
	}
}
