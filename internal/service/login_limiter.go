package service

import (
	"strings"
	"sync"
	"time"
)

// LoginLimiter limita los intentos de login por email.
type LoginLimiter interface {
	Allow(key string) bool
	Reset(key string)
}

// sweepEvery es cada cuántas llamadas a Allow se purgan las claves vencidas.
const sweepEvery = 1024

type memoryLoginLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	calls  int
	now    func() time.Time
}

// NewMemoryLoginLimiter crea un limitador de ventana deslizante en memoria.
func NewMemoryLoginLimiter(window time.Duration, max int) LoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLoginLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryLoginLimiter) Allow(key string) bool {
	key = limiterKey(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(cutoff)
	}
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	if len(kept) == 0 {
		delete(l.hits, key)
		kept = nil
	}
	l.hits[key] = append(kept, now)
	return true
}

// sweep borra las claves cuyo último intento ya salió de la ventana.
func (l *memoryLoginLimiter) sweep(cutoff time.Time) {
	for key, entries := range l.hits {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
}

func (l *memoryLoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, limiterKey(key))
}

func limiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
