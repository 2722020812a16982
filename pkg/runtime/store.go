// Package runtime owns the per-session shared state the evaluation engine
// reads: the boot context established at login and the cache of referenced
// documents. It is the only mutable piece of the subsystem; everything else
// is a pure function over its contents.
package runtime

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-docfield/pkg/model"
)

// SingletonPrefix marks doctype references to singleton documents. Metadata
// authors reference these types both with and without the marker, so the
// cache resolves either spelling to the same entry.
const SingletonPrefix = "single:"

// SysDefaults carries the system-wide formatting defaults from boot.
type SysDefaults struct {
	TimeZone     string `json:"time_zone,omitempty"`
	NumberFormat string `json:"number_format,omitempty"`
}

// Boot is the session-wide configuration established after authentication.
// It is replaced wholesale on re-login and read-only to every consumer.
type Boot struct {
	User     string      `json:"user"`
	Roles    []string    `json:"roles,omitempty"`
	Defaults SysDefaults `json:"sysdefaults"`
}

// HasRole reports whether the session carries the named role.
func (b Boot) HasRole(role string) bool {
	for _, r := range b.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Fetcher loads a referenced document on a cache miss. A nil document with a
// nil error means "not found"; errors are reserved for transport failures.
// Either outcome resolves to absence at the store boundary.
type Fetcher func(ctx context.Context, doctype, name string) (model.Document, error)

// Option customises store construction.
type Option func(*Store)

// WithFetcher registers the asynchronous document fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(s *Store) {
		s.fetcher = fetcher
	}
}

// Store is the session runtime state: boot context plus the keyed document
// reference cache, with change notification for reactive recomputation.
// Construct one per session; Reset clears it at logout. Safe for concurrent
// use.
type Store struct {
	mu        sync.RWMutex
	boot      Boot
	hasBoot   bool
	docs      map[string]map[string]model.Document
	fetcher   Fetcher
	listeners map[int]func()
	nextID    int

	version atomic.Uint64
	flight  singleflight.Group
}

// NewStore constructs an empty store.
func NewStore(options ...Option) *Store {
	s := &Store{
		docs:      make(map[string]map[string]model.Document),
		listeners: make(map[int]func()),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SetFetcher registers the document fetcher after construction, for boot
// layers that wire transport later than the store.
func (s *Store) SetFetcher(fetcher Fetcher) {
	s.mu.Lock()
	s.fetcher = fetcher
	s.mu.Unlock()
}

// SetBoot replaces the boot context and notifies subscribers.
func (s *Store) SetBoot(boot Boot) {
	s.mu.Lock()
	s.boot = boot
	s.hasBoot = true
	s.mu.Unlock()
	s.bump()
}

// Boot returns the current boot context; ok is false before SetBoot.
func (s *Store) Boot() (Boot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boot, s.hasBoot
}

// SetDoc upserts a cache entry and notifies subscribers. When doctype
// carries the singleton marker the entry is registered under both the
// canonical and the marked key.
func (s *Store) SetDoc(doctype, name string, doc model.Document) {
	s.mu.Lock()
	bucket := s.bucketLocked(doctype)
	bucket[name] = doc
	s.mu.Unlock()
	s.bump()
}

// GetDoc is the synchronous cache read: the entry or (nil, false). It never
// performs I/O.
func (s *Store) GetDoc(doctype, name string) (model.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.docs[doctype]
	if !ok {
		bucket, ok = s.docs[canonicalType(doctype)]
	}
	if !ok {
		return nil, false
	}
	doc, ok := bucket[name]
	return doc, ok
}

// EnsureDoc returns the cached entry, or fetches it through the registered
// fetcher. Concurrent callers for the same key share one in-flight fetch.
// Absence (no fetcher, not found, or a fetch failure) resolves to
// (nil, false); the store never surfaces an error.
func (s *Store) EnsureDoc(ctx context.Context, doctype, name string) (model.Document, bool) {
	if doc, ok := s.GetDoc(doctype, name); ok {
		return doc, true
	}
	s.mu.RLock()
	fetcher := s.fetcher
	s.mu.RUnlock()
	if fetcher == nil {
		return nil, false
	}

	key := canonicalType(doctype) + "\x00" + name
	result, err, _ := s.flight.Do(key, func() (any, error) {
		// A fill may have landed between the cache miss and joining the
		// flight; re-check before touching the network.
		if doc, ok := s.GetDoc(doctype, name); ok {
			return doc, nil
		}
		doc, err := fetcher(ctx, doctype, name)
		if err != nil || doc == nil {
			return nil, nil
		}
		s.SetDoc(doctype, name, doc)
		return doc, nil
	})
	if err != nil || result == nil {
		return nil, false
	}
	return result.(model.Document), true
}

// Prefetch schedules a background fill for a missing reference without
// blocking the caller. Subscribers are notified when the fetch lands (via
// SetDoc), which is what triggers dependent recomputation.
func (s *Store) Prefetch(doctype, name string) {
	if _, ok := s.GetDoc(doctype, name); ok {
		return
	}
	go s.EnsureDoc(context.Background(), doctype, name)
}

// Subscribe registers a change listener and returns its removal function.
// Listeners run synchronously after every mutation; they must not mutate
// the store.
func (s *Store) Subscribe(listener func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Version is a monotonic counter incremented on every mutation, for external
// change-detection integrations.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Reset clears the boot context and the whole document cache, as done at
// logout. Subscribers are notified once.
func (s *Store) Reset() {
	s.mu.Lock()
	s.boot = Boot{}
	s.hasBoot = false
	s.docs = make(map[string]map[string]model.Document)
	s.mu.Unlock()
	s.bump()
}

func (s *Store) bucketLocked(doctype string) map[string]model.Document {
	canonical := canonicalType(doctype)
	bucket, ok := s.docs[canonical]
	if !ok {
		bucket = make(map[string]model.Document)
		s.docs[canonical] = bucket
	}
	if doctype != canonical {
		s.docs[doctype] = bucket
	}
	return bucket
}

func (s *Store) bump() {
	s.version.Add(1)
	s.mu.RLock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func canonicalType(doctype string) string {
	return strings.TrimPrefix(doctype, SingletonPrefix)
}
