package client

import (
	"context"
	"log"
	"sync"

	"bookmarkhub-be/pkg/events"
	pktNats "bookmarkhub-be/pkg/nats"

	"github.com/google/uuid"
)

// NatsChangeFeed subscribes to one owner's change subject on the broker.
// Filtering happens server-side in the subject; a subscription for owner A
// is never delivered owner B's rows.
type NatsChangeFeed struct {
	sub *pktNats.Subscriber
}

func NewNatsChangeFeed(sub *pktNats.Subscriber) *NatsChangeFeed {
	return &NatsChangeFeed{sub: sub}
}

type natsSubscription struct {
	stop     func()
	stopOnce sync.Once
}

func (s *natsSubscription) Close() {
	s.stopOnce.Do(s.stop)
}

func (f *NatsChangeFeed) Subscribe(ctx context.Context, ownerID uuid.UUID, handlers ChangeHandlers) (Subscription, error) {
	stop, err := f.sub.SubscribeLive(ctx, events.BookmarkSubject(ownerID), func(_ context.Context, subject string, data []byte) error {
		change, err := events.DecodeBookmarkChange(data)
		if err != nil {
			// Malformed payloads never become valid on redelivery.
			log.Printf("Dropping undecodable change on %s: %v", subject, err)
			return nil
		}
		if change.OwnerID != ownerID {
			// Subject and payload disagree; drop rather than leak. A Nak
			// would only redeliver the same mismatch.
			log.Printf("Dropping change on %s carrying foreign owner %s", subject, change.OwnerID)
			return nil
		}
		dispatch(handlers, change)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &natsSubscription{stop: stop}, nil
}

func dispatch(handlers ChangeHandlers, change events.BookmarkChange) {
	switch change.Op {
	case events.OpInsert:
		if handlers.OnInsert != nil {
			handlers.OnInsert(toBookmark(change))
		}
	case events.OpUpdate:
		if handlers.OnUpdate != nil {
			handlers.OnUpdate(toBookmark(change))
		}
	case events.OpDelete:
		if handlers.OnDelete != nil {
			handlers.OnDelete(change.ID)
		}
	}
}

func toBookmark(change events.BookmarkChange) Bookmark {
	return Bookmark{
		ID:        change.ID,
		Title:     change.Title,
		TargetURL: change.TargetURL,
		OwnerID:   change.OwnerID,
		CreatedAt: change.CreatedAt,
	}
}
