package cache

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is the persisted form of one cached payload.
type Entry struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
	TTL       time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) >= e.TTL
}

// Store is a key -> (payload, expiry) cache safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	dir     string
	entries map[string]Entry

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// NewStore creates a store backed by dir. If janitorInterval is positive a
// background sweep removes expired entries; Close stops it.
func NewStore(dir string, janitorInterval time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		dir:         dir,
		entries:     map[string]Entry{},
		stopJanitor: make(chan struct{}),
	}
	if janitorInterval > 0 {
		go s.janitor(janitorInterval)
	}
	return s, nil
}

// Get returns the payload for key, or found=false for an absent or expired
// entry. A memory miss falls through to the disk copy so entries survive
// restarts; a corrupted disk file is treated as a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	now := time.Now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		if e.expired(now) {
			return nil, false
		}
		return e.Payload, true
	}

	e, ok = s.readDisk(key)
	if !ok || e.expired(now) {
		return nil, false
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return e.Payload, true
}

// Put stores payload under key with the given TTL. Last write wins.
func (s *Store) Put(key string, payload []byte, ttl time.Duration) {
	e := Entry{Key: key, Payload: payload, FetchedAt: time.Now(), TTL: ttl}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()

	if err := s.writeDisk(e); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: failed to persist entry")
	}
}

// Invalidate removes key from memory and disk.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	_ = os.Remove(s.path(key))
}

// Close stops the background janitor, if running.
func (s *Store) Close() {
	s.janitorOnce.Do(func() { close(s.stopJanitor) })
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			_ = os.Remove(s.path(k))
		}
	}
	s.mu.Unlock()
}

// path maps a key to a file name the same way the entries are addressed by
// the relay client: unsafe characters collapse to underscores.
func (s *Store) path(key string) string {
	r := strings.NewReplacer("/", "_", "?", "_", "&", "_", ":", "_", "=", "_", "|", "_")
	return filepath.Join(s.dir, r.Replace(key)+".gob")
}

func (s *Store) readDisk(key string) (Entry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		// Corrupted entry: drop it and report a miss.
		_ = os.Remove(s.path(key))
		return Entry{}, false
	}
	return e, true
}

func (s *Store) writeDisk(e Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}
	return os.WriteFile(s.path(e.Key), buf.Bytes(), 0o644)
}
