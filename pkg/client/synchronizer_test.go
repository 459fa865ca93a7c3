package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows      []Bookmark
	selectErr error
	insertErr error
	deleteErr error

	inserts []Bookmark
	deletes []uuid.UUID
	selects int
}

func (f *fakeStore) Select(_ context.Context, ownerID uuid.UUID) ([]Bookmark, error) {
	f.selects++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	out := make([]Bookmark, 0, len(f.rows))
	for _, r := range f.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, title, targetURL string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts = append(f.inserts, Bookmark{Title: title, TargetURL: targetURL})
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

type fakeSubscription struct {
	closed int
}

func (f *fakeSubscription) Close() { f.closed++ }

type fakeFeed struct {
	handlers      ChangeHandlers
	subscription  *fakeSubscription
	subscribed    int
	subscribeErr  error
}

func (f *fakeFeed) Subscribe(_ context.Context, _ uuid.UUID, handlers ChangeHandlers) (Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.subscribed++
	f.handlers = handlers
	f.subscription = &fakeSubscription{}
	return f.subscription, nil
}

func bookmarkAt(owner uuid.UUID, title string, at time.Time) Bookmark {
	return Bookmark{
		ID:        uuid.New(),
		Title:     title,
		TargetURL: "https://example.com/" + title,
		OwnerID:   owner,
		CreatedAt: at,
	}
}

func ids(items []Bookmark) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, b := range items {
		out[i] = b.ID
	}
	return out
}

func TestInitializeFetchesNewestFirst(t *testing.T) {
	owner := uuid.New()
	t1 := time.Now().Add(-time.Hour)
	t2 := time.Now()
	older := bookmarkAt(owner, "older", t1)
	newer := bookmarkAt(owner, "newer", t2)

	// Store returns rows newest first, the way the service orders them.
	store := &fakeStore{rows: []Bookmark{newer, older}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)

	require.NoError(t, sync.Initialize(context.Background(), owner))

	items := sync.Items()
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Equal(t, 1, feed.subscribed)
}

func TestInitializeIsIdempotent(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)

	require.NoError(t, sync.Initialize(context.Background(), owner))
	require.NoError(t, sync.Initialize(context.Background(), owner))

	assert.Equal(t, 1, feed.subscribed, "re-invocation must not open a second subscription")
	assert.Equal(t, 1, store.selects)
}

func TestInitializeRequiresOwner(t *testing.T) {
	sync := NewSynchronizer(&fakeStore{}, &fakeFeed{})
	assert.ErrorIs(t, sync.Initialize(context.Background(), uuid.Nil), ErrNotInitialized)
}

func TestInitializeFetchFailureDoesNotSubscribe(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{selectErr: errors.New("store unreachable")}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)

	require.Error(t, sync.Initialize(context.Background(), owner))
	assert.Equal(t, 0, feed.subscribed)

	// Recoverable: a later attempt starts cleanly.
	store.selectErr = nil
	require.NoError(t, sync.Initialize(context.Background(), owner))
	assert.Equal(t, 1, feed.subscribed)
}

func TestInsertEventPrependsAndDedupes(t *testing.T) {
	owner := uuid.New()
	existing := bookmarkAt(owner, "existing", time.Now().Add(-time.Minute))
	store := &fakeStore{rows: []Bookmark{existing}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	live := bookmarkAt(owner, "live", time.Now())
	feed.handlers.OnInsert(live)
	feed.handlers.OnInsert(live) // duplicate delivery

	items := sync.Items()
	require.Len(t, items, 2)
	assert.Equal(t, live.ID, items[0].ID, "live insert goes to the head")
	assert.Equal(t, existing.ID, items[1].ID)
}

func TestUpdateEventReplacesById(t *testing.T) {
	owner := uuid.New()
	b := bookmarkAt(owner, "before", time.Now())
	store := &fakeStore{rows: []Bookmark{b}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	updated := b
	updated.Title = "after"
	feed.handlers.OnUpdate(updated)

	items := sync.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "after", items[0].Title)

	// Unknown id is a no-op.
	feed.handlers.OnUpdate(bookmarkAt(owner, "ghost", time.Now()))
	assert.Len(t, sync.Items(), 1)
}

func TestDeleteEventRemovesById(t *testing.T) {
	owner := uuid.New()
	b := bookmarkAt(owner, "doomed", time.Now())
	store := &fakeStore{rows: []Bookmark{b}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	feed.handlers.OnDelete(b.ID)
	assert.Empty(t, sync.Items())

	// Repeat delivery is a no-op.
	feed.handlers.OnDelete(b.ID)
	assert.Empty(t, sync.Items())
}

func TestNoDuplicateIdsUnderInterleaving(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	b := bookmarkAt(owner, "racy", time.Now())
	feed.handlers.OnInsert(b)
	feed.handlers.OnUpdate(b)
	feed.handlers.OnInsert(b)
	feed.handlers.OnDelete(b.ID)
	feed.handlers.OnInsert(b)

	seen := map[uuid.UUID]int{}
	for _, id := range ids(sync.Items()) {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "id %s appears %d times", id, n)
	}
}

func TestAddBookmarkValidates(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	tests := []struct {
		name      string
		title     string
		targetURL string
	}{
		{name: "empty title", title: "", targetURL: "http://x.com"},
		{name: "empty url", title: "x", targetURL: ""},
		{name: "whitespace only", title: "   ", targetURL: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sync.AddBookmark(context.Background(), tt.title, tt.targetURL)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, store.inserts, "no remote call on validation failure")
			assert.Empty(t, sync.Items())
		})
	}
}

func TestAddBookmarkIsNotOptimistic(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	require.NoError(t, sync.AddBookmark(context.Background(), "  Go docs  ", " https://go.dev "))

	require.Len(t, store.inserts, 1)
	assert.Equal(t, "Go docs", store.inserts[0].Title)
	assert.Equal(t, "https://go.dev", store.inserts[0].TargetURL)
	assert.Empty(t, sync.Items(), "entry appears only via the echoed insert event")

	// The echo lands it.
	echoed := bookmarkAt(owner, "Go docs", time.Now())
	feed.handlers.OnInsert(echoed)
	assert.Len(t, sync.Items(), 1)
}

func TestDeleteBookmarkIsOptimistic(t *testing.T) {
	owner := uuid.New()
	b := bookmarkAt(owner, "gone", time.Now())
	store := &fakeStore{rows: []Bookmark{b}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	require.NoError(t, sync.DeleteBookmark(context.Background(), b.ID))
	assert.Empty(t, sync.Items())
	assert.Equal(t, []uuid.UUID{b.ID}, store.deletes)
}

func TestDeleteFailureReconcilesToGroundTruth(t *testing.T) {
	owner := uuid.New()
	kept := bookmarkAt(owner, "kept", time.Now().Add(-time.Minute))
	target := bookmarkAt(owner, "target", time.Now())
	store := &fakeStore{
		rows:      []Bookmark{target, kept},
		deleteErr: errors.New("permission denied"),
	}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	err := sync.DeleteBookmark(context.Background(), target.ID)
	require.Error(t, err)

	// The failed row is restored: items equals the store's contents.
	assert.ElementsMatch(t, ids(store.rows), ids(sync.Items()))
	assert.Contains(t, ids(sync.Items()), target.ID)
}

func TestOwnershipIsolation(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	mine := bookmarkAt(owner, "mine", time.Now())
	theirs := bookmarkAt(stranger, "theirs", time.Now())
	store := &fakeStore{rows: []Bookmark{mine, theirs}}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	for _, b := range sync.Items() {
		assert.Equal(t, owner, b.OwnerID)
	}
}

func TestCloseReleasesSubscriptionAndDiscardsLateEvents(t *testing.T) {
	owner := uuid.New()
	store := &fakeStore{}
	feed := &fakeFeed{}
	sync := NewSynchronizer(store, feed)
	require.NoError(t, sync.Initialize(context.Background(), owner))

	handlers := feed.handlers
	sync.Close()
	assert.Equal(t, 1, feed.subscription.closed)

	// A late event after teardown must not resurrect state.
	handlers.OnInsert(bookmarkAt(owner, "late", time.Now()))
	assert.Empty(t, sync.Items())

	// Close is safe to repeat.
	sync.Close()
	assert.Equal(t, 1, feed.subscription.closed)
}

func TestOperationsRequireInitialization(t *testing.T) {
	sync := NewSynchronizer(&fakeStore{}, &fakeFeed{})

	assert.ErrorIs(t, sync.AddBookmark(context.Background(), "a", "b"), ErrNotInitialized)
	assert.ErrorIs(t, sync.DeleteBookmark(context.Background(), uuid.New()), ErrNotInitialized)
}
