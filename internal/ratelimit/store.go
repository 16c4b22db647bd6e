package ratelimit

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

// ClientRecord is the accounting state of one client key.
// Its fields are only touched while mu is held.
type ClientRecord struct {
	mu sync.Mutex

	key      string
	lastSeen time.Time
	// evicted is set once the record has been removed from the store.
	// Holders of a stale pointer must fetch a fresh record.
	evicted bool

	// sliding window: admitted instants, oldest first, starting at head.
	timestamps []time.Time
	head       int

	// fixed window.
	windowStart time.Time
	count       int

	// token bucket.
	bucket *rate.Limiter
}

// Key returns the client key the record accounts for.
func (r *ClientRecord) Key() string {
	return r.key
}

// LastSeen returns the instant of the most recent decision for the client.
func (r *ClientRecord) LastSeen() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastSeen
}

// Len returns the number of admitted instants currently held by a sliding window record.
func (r *ClientRecord) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.timestamps) - r.head
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*ClientRecord
}

// Store maps client keys to their records. Keys are spread over independently
// locked shards so unrelated clients never contend on the same lock.
//
// Lock order is record then shard: a record lock may be held while taking a
// shard lock, never the reverse.
type Store struct {
	shards []*shard
}

// NewStore creates an empty store with the given number of shards.
func NewStore(shards int) *Store {
	if shards <= 0 {
		shards = defaultShards
	}

	s := &Store{shards: make([]*shard, shards)}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*ClientRecord)}
	}

	return s
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// GetOrCreate returns the record for key, inserting a fresh one if needed.
// Concurrent callers for the same key always receive the same record.
func (s *Store) GetOrCreate(key string) *ClientRecord {
	sh := s.shardFor(key)

	sh.mu.RLock()
	rec, ok := sh.records[key]
	sh.mu.RUnlock()

	if ok {
		return rec
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if rec, ok := sh.records[key]; ok {
		return rec
	}

	rec = &ClientRecord{key: key}
	sh.records[key] = rec

	return rec
}

// Load returns the record for key if one exists.
func (s *Store) Load(key string) (*ClientRecord, bool) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[key]

	return rec, ok
}

// Delete removes the record currently stored for key. A record created for the
// same key after the removal is left untouched.
func (s *Store) Delete(key string) {
	rec, ok := s.Load(key)
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	s.evictLocked(rec)
}

// evictLocked marks rec evicted and removes it if it is still the stored record
// for its key. The caller must hold rec.mu.
func (s *Store) evictLocked(rec *ClientRecord) bool {
	if rec.evicted {
		return false
	}

	rec.evicted = true

	sh := s.shardFor(rec.key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.records[rec.key] != rec {
		return false
	}

	delete(sh.records, rec.key)

	return true
}

// Keys returns a snapshot of the stored keys. Each shard is locked only while
// its own keys are copied.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.Len())

	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.records {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}

	return keys
}

// Len returns the number of tracked clients.
func (s *Store) Len() int {
	n := 0

	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}

	return n
}
