// Package client implements the dashboard's state-synchronization core: the
// session gate resolving the signed-in identity and the bookmark list
// synchronizer keeping an in-memory list consistent with the backing store
// through a live change subscription.
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the resolved signed-in user.
type Identity struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

// Bookmark is the synchronizer's view of one saved link.
type Bookmark struct {
	ID        uuid.UUID
	Title     string
	TargetURL string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

// AuthGateway resolves the current identity and builds the sign-in entry
// point. Token storage and refresh belong to the gateway, not the callers.
type AuthGateway interface {
	CurrentIdentity(ctx context.Context) (*Identity, error)
	SignInURL(provider, returnURL string) string
}

// BookmarkStore is the row-oriented persistence collaborator. Select returns
// the owner's rows newest first; Delete is scoped to id AND owner on the
// server side regardless of what the caller passes.
type BookmarkStore interface {
	Select(ctx context.Context, ownerID uuid.UUID) ([]Bookmark, error)
	Insert(ctx context.Context, title, targetURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChangeHandlers receive row-change notifications one at a time.
type ChangeHandlers struct {
	OnInsert func(Bookmark)
	OnUpdate func(Bookmark)
	OnDelete func(id uuid.UUID)
}

// Subscription is a live handle on the change feed. Close releases it and
// must be safe to call more than once.
type Subscription interface {
	Close()
}

// ChangeFeed opens owner-scoped subscriptions on the event channel. The
// owner filter is applied server-side; handlers never see another owner's
// rows.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ownerID uuid.UUID, handlers ChangeHandlers) (Subscription, error)
}
