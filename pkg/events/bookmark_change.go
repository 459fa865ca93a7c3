package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// BookmarkChange is the row-change notification carried on the event
// channel. Delete events only carry the id and owner; the row is gone.
type BookmarkChange struct {
	Op        ChangeOp   `json:"op"`
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"user_id"`
	Title     string     `json:"title,omitempty"`
	TargetURL string     `json:"target_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	At        time.Time  `json:"at"`
}

// EventType encodes the owner into the subject so the broker filters
// server-side; subscribers for owner A never see owner B's rows.
func (e BookmarkChange) EventType() string {
	return fmt.Sprintf("bookmarks.%s.%s", e.OwnerID, e.Op)
}

func (e BookmarkChange) Payload() map[string]interface{} {
	raw, _ := json.Marshal(e)
	var m map[string]interface{}
	_ = json.Unmarshal(raw, &m)
	return m
}

func (e BookmarkChange) Timestamp() time.Time {
	return e.At
}

// DecodeBookmarkChange parses a change event off the wire.
func DecodeBookmarkChange(data []byte) (BookmarkChange, error) {
	var e BookmarkChange
	if err := json.Unmarshal(data, &e); err != nil {
		return BookmarkChange{}, fmt.Errorf("failed to decode bookmark change: %w", err)
	}
	if e.Op != OpInsert && e.Op != OpUpdate && e.Op != OpDelete {
		return BookmarkChange{}, fmt.Errorf("unknown change op %q", e.Op)
	}
	return e, nil
}

// BookmarkSubject returns the broker subject carrying one owner's changes.
// Used with a trailing wildcard to subscribe to all ops for the owner.
func BookmarkSubject(ownerID uuid.UUID) string {
	return fmt.Sprintf("events.bookmarks.%s.>", ownerID)
}

// OwnerFromSubject extracts the owner segment from a bookmark change subject.
func OwnerFromSubject(subject string) (uuid.UUID, error) {
	parts := strings.Split(subject, ".")
	if len(parts) < 4 || parts[0] != "events" || parts[1] != "bookmarks" {
		return uuid.Nil, fmt.Errorf("not a bookmark change subject: %s", subject)
	}
	return uuid.Parse(parts[2])
}
