package service

import (
	"context"

	"bookmarkhub-be/internal/pkg/logger"
	"bookmarkhub-be/pkg/events"
	pktNats "bookmarkhub-be/pkg/nats"

	"github.com/google/uuid"
)

// ChangeDelivery defines how to push row changes to live sessions.
// Typically implemented by the WebSocket Hub.
type ChangeDelivery interface {
	Send(ownerID uuid.UUID, change events.BookmarkChange)
}

// ChangefeedService bridges the durable event bus to open websocket
// sessions: every committed bookmark change flows NATS -> here -> hub.
type ChangefeedService struct {
	subscriber *pktNats.Subscriber
	delivery   ChangeDelivery
	logger     logger.ILogger
}

func NewChangefeedService(sub *pktNats.Subscriber, delivery ChangeDelivery, log logger.ILogger) *ChangefeedService {
	return &ChangefeedService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *ChangefeedService) Start() {
	err := s.subscriber.Subscribe("events.bookmarks.>", "changefeed-worker", s.handleMessage)
	if err != nil {
		s.logger.Error("ChangefeedService", "Failed to start changefeed subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("ChangefeedService", "Changefeed started, listening to events.bookmarks.>", nil)
}

func (s *ChangefeedService) handleMessage(ctx context.Context, subject string, data []byte) error {
	change, err := events.DecodeBookmarkChange(data)
	if err != nil {
		// Malformed payloads are dropped, not retried
		s.logger.Warn("ChangefeedService", "Dropping undecodable change event", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
		return nil
	}

	// The subject owner is authoritative for routing; a payload that
	// disagrees with its subject never crosses into another owner's feed.
	owner, err := events.OwnerFromSubject(subject)
	if err != nil || owner != change.OwnerID {
		s.logger.Warn("ChangefeedService", "Owner mismatch between subject and payload", map[string]interface{}{
			"subject": subject,
		})
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(change.OwnerID, change)
	}

	s.logger.Info("ChangefeedService", "Delivered change", map[string]interface{}{
		"op":       string(change.Op),
		"id":       change.ID,
		"owner_id": change.OwnerID,
	})

	return nil
}
