package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrValidation rejects an add with an empty title or URL before any
	// remote call is made.
	ErrValidation = errors.New("title and target URL must be non-empty")

	// ErrNotInitialized guards operations that need a running synchronizer.
	ErrNotInitialized = errors.New("synchronizer is not initialized")
)

// Synchronizer owns the in-memory bookmark list for one signed-in owner. It
// fetches the initial list, holds exactly one live subscription, and merges
// change events and local actions so the list always converges on the
// backing store's truth.
//
// Events arrive interleaved arbitrarily with local actions. Insert applies
// dedupe-by-id and delete is remove-if-present, so both are idempotent and
// safe in any relative order.
type Synchronizer struct {
	store BookmarkStore
	feed  ChangeFeed

	mu         sync.Mutex
	items      []Bookmark
	ownerID    uuid.UUID
	sub        Subscription
	generation uint64
}

func NewSynchronizer(store BookmarkStore, feed ChangeFeed) *Synchronizer {
	return &Synchronizer{store: store, feed: feed}
}

// Initialize fetches the owner's bookmarks newest first and opens the live
// subscription. Re-invocation while initialized is a no-op, so a second
// subscription can never be opened.
func (s *Synchronizer) Initialize(ctx context.Context, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return ErrNotInitialized
	}

	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return nil
	}
	s.ownerID = ownerID
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	fetched, err := s.store.Select(ctx, ownerID)
	if err != nil {
		return err
	}

	sub, err := s.feed.Subscribe(ctx, ownerID, ChangeHandlers{
		OnInsert: func(b Bookmark) { s.applyInsert(gen, b) },
		OnUpdate: func(b Bookmark) { s.applyUpdate(gen, b) },
		OnDelete: func(id uuid.UUID) { s.applyDelete(gen, id) },
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		// Closed while we were subscribing; release immediately.
		s.mu.Unlock()
		sub.Close()
		return nil
	}
	s.items = fetched
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// Close releases the subscription. Safe to call repeatedly and on error
// paths; late events and in-flight fetch results are discarded afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.generation++
	s.items = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Items returns a snapshot of the current list, newest first.
func (s *Synchronizer) Items() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bookmark, len(s.items))
	copy(out, s.items)
	return out
}

// AddBookmark validates and submits a new bookmark. The list is not touched
// here: the entry appears only via the echoed insert event, which the
// dedupe-by-id guard keeps single.
func (s *Synchronizer) AddBookmark(ctx context.Context, title, targetURL string) error {
	title = strings.TrimSpace(title)
	targetURL = strings.TrimSpace(targetURL)
	if title == "" || targetURL == "" {
		return ErrValidation
	}

	s.mu.Lock()
	initialized := s.sub != nil
	s.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	return s.store.Insert(ctx, title, targetURL)
}

// DeleteBookmark removes the entry optimistically, before the remote delete
// is issued, so the list reflects the deletion with zero latency. If the
// remote delete fails, the whole list is refetched: the optimistic removal
// may not have been the only divergence, so a point-fix is not enough.
func (s *Synchronizer) DeleteBookmark(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	gen := s.generation
	s.removeLocked(id)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return s.reconcile(ctx, gen, err)
	}
	return nil
}

// reconcile replaces the list with a fresh read of ground truth after a
// failed delete. The original failure is what the caller sees; a failed
// refetch is reported alongside it.
func (s *Synchronizer) reconcile(ctx context.Context, gen uint64, cause error) error {
	s.mu.Lock()
	ownerID := s.ownerID
	s.mu.Unlock()

	fetched, err := s.store.Select(ctx, ownerID)
	if err != nil {
		return errors.Join(cause, err)
	}

	s.mu.Lock()
	if s.generation == gen {
		s.items = fetched
	}
	s.mu.Unlock()
	return cause
}

func (s *Synchronizer) applyInsert(gen uint64, b Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	for _, existing := range s.items {
		if existing.ID == b.ID {
			return
		}
	}
	// Live inserts are always the most recent row, so prepending preserves
	// the descending created_at order of the initial fetch.
	s.items = append([]Bookmark{b}, s.items...)
}

func (s *Synchronizer) applyUpdate(gen uint64, b Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	for i, existing := range s.items {
		if existing.ID == b.ID {
			s.items[i] = b
			return
		}
	}
}

func (s *Synchronizer) applyDelete(gen uint64, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.removeLocked(id)
}

func (s *Synchronizer) removeLocked(id uuid.UUID) {
	for i, existing := range s.items {
		if existing.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}
