package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type entry struct {
	Code      string
	ExpiresAt time.Time
	Verified  bool
	Failures  int
}

// store keeps one pending code per phone in memory.
type store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func newStore(now func() time.Time) *store {
	return &store{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (m *store) Issue(phone string, ttl time.Duration) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.entries[phone] = entry{Code: code, ExpiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return code, nil
}

func (m *store) Get(phone string) (entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[phone]
	m.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	if m.now().After(e.ExpiresAt) {
		m.mu.Lock()
		// The code may have been reissued since the read lock was released.
		if cur, ok := m.entries[phone]; ok && m.now().After(cur.ExpiresAt) {
			delete(m.entries, phone)
		}
		m.mu.Unlock()
		return entry{}, false
	}
	return e, true
}

// RecordFailure counts a wrong guess against the pending code and drops the
// code once max failures are reached. It reports whether the code is gone.
func (m *store) RecordFailure(phone, code string, max int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[phone]
	if !ok || e.Code != code {
		return true
	}
	e.Failures++
	if e.Failures >= max {
		delete(m.entries, phone)
		return true
	}
	m.entries[phone] = e
	return false
}

// MarkVerified flags the phone and restarts its expiry at ttl.
func (m *store) MarkVerified(phone string, ttl time.Duration) {
	m.mu.Lock()
	if e, ok := m.entries[phone]; ok {
		e.Verified = true
		e.ExpiresAt = m.now().Add(ttl)
		m.entries[phone] = e
	}
	m.mu.Unlock()
}

func (m *store) Delete(phone string) {
	m.mu.Lock()
	delete(m.entries, phone)
	m.mu.Unlock()
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
