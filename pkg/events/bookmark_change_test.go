package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeEncodesOwnerAndOp(t *testing.T) {
	owner := uuid.New()
	e := BookmarkChange{Op: OpInsert, ID: uuid.New(), OwnerID: owner}

	assert.Equal(t, "bookmarks."+owner.String()+".insert", e.EventType())
}

func TestOwnerFromSubject(t *testing.T) {
	owner := uuid.New()

	got, err := OwnerFromSubject("events.bookmarks." + owner.String() + ".delete")
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	_, err = OwnerFromSubject("events.notes." + owner.String() + ".delete")
	assert.Error(t, err)

	_, err = OwnerFromSubject("events.bookmarks.not-a-uuid.delete")
	assert.Error(t, err)
}

func TestSubjectRoundTrip(t *testing.T) {
	owner := uuid.New()
	e := BookmarkChange{Op: OpUpdate, ID: uuid.New(), OwnerID: owner, At: time.Now()}

	// The publisher prefixes "events." to EventType; the subscriber must
	// recover the same owner it subscribed for.
	subject := "events." + e.EventType()
	got, err := OwnerFromSubject(subject)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestDecodeBookmarkChangeRejectsUnknownOp(t *testing.T) {
	raw, err := json.Marshal(map[string]interface{}{
		"op": "truncate",
		"id": uuid.New().String(),
	})
	require.NoError(t, err)

	_, err = DecodeBookmarkChange(raw)
	assert.Error(t, err)
}

func TestDecodeBookmarkChange(t *testing.T) {
	owner := uuid.New()
	in := BookmarkChange{
		Op:        OpDelete,
		ID:        uuid.New(),
		OwnerID:   owner,
		At:        time.Now().UTC(),
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := DecodeBookmarkChange(raw)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, owner, out.OwnerID)
	assert.Equal(t, OpDelete, out.Op)
}
