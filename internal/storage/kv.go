// Package storage abstracts the external key-value boundary the session
// flow reads and writes (candidate info, exam config, completion marker).
// The question catalog is shared per exam, not per candidate, so it lives
// in the exam payload cache instead of here. The engine never assumes a
// backend: production wires Redis, tests wire the in-memory store.
package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a minimal string key-value store with optional expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Well-known keys, namespaced per candidate by the key builders below.
const (
	keyCandidateInfo = "candidateInfo"
	keyExamConfig    = "examConfig"
	keyExamCompleted = "examCompleted"
)

// CandidateInfoKey returns the key holding a candidate's info JSON.
func CandidateInfoKey(candidateID int) string {
	return key(candidateID, keyCandidateInfo)
}

// ExamConfigKey returns the key holding a candidate's exam config JSON.
func ExamConfigKey(candidateID int) string {
	return key(candidateID, keyExamConfig)
}

// ExamCompletedKey returns the key marking one candidate's attempt at one
// exam as completed ("true" or absent). Scoped per exam so finishing one
// exam never blocks starting another.
func ExamCompletedKey(candidateID int, examID string) string {
	return key(candidateID, keyExamCompleted+":"+examID)
}

func key(candidateID int, name string) string {
	// Mirrors the frontend's session-storage key names under a
	// per-candidate prefix.
	return "candidate:" + strconv.Itoa(candidateID) + ":" + name
}

// Memory is an in-process Store used in tests and single-node dev runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), clock: time.Now}
}

// Get returns the value for key or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && m.clock().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", ErrNotFound
	}
	return entry.value, nil
}

// Set stores value under key. A zero ttl means no expiry.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.clock().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
