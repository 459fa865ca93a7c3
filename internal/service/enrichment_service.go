package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"bookmarkhub-be/internal/dto"
	"bookmarkhub-be/internal/repository/specification"
	"bookmarkhub-be/internal/repository/unitofwork"
	"bookmarkhub-be/pkg/events"
	pktNats "bookmarkhub-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IEnrichmentService interface {
	Consume(ctx context.Context) error
}

type enrichmentService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	httpClient     *http.Client
}

func NewEnrichmentService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
) IEnrichmentService {
	return &enrichmentService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (es *enrichmentService) Consume(ctx context.Context) error {
	messages, err := es.pubSub.Subscribe(ctx, es.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			es.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (es *enrichmentService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEnrichBookmarkMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Enriching bookmark title for BookmarkId: %s", payload.BookmarkId)

	uow := es.uowFactory.NewUnitOfWork(ctx)

	bookmark, err := uow.BookmarkRepository().FindOne(ctx, specification.ByID{ID: payload.BookmarkId})
	if err != nil {
		log.Printf("[ERROR] Failed to get bookmark %s: %v", payload.BookmarkId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if bookmark == nil {
		log.Printf("[INFO] Bookmark %s gone before enrichment, skipping", payload.BookmarkId)
		msg.Ack() // Deleted in the meantime? Ack.
		return
	}

	title, err := es.fetchPageTitle(ctx, bookmark.TargetURL)
	if err != nil {
		log.Printf("[WARN] Could not fetch title for %s: %v", bookmark.TargetURL, err)
		msg.Ack() // Unreachable page is not retriable in any useful way
		return
	}
	if title == "" || strings.EqualFold(title, bookmark.Title) {
		msg.Ack()
		return
	}

	bookmark.Title = title
	now := time.Now()
	bookmark.UpdatedAt = &now

	if err := uow.BookmarkRepository().Update(ctx, bookmark); err != nil {
		log.Printf("[ERROR] Failed to update bookmark %s: %v", bookmark.Id, err)
		msg.Nack()
		return
	}

	// The update event is how every open session learns the new title.
	if es.eventPublisher != nil {
		evt := events.BookmarkChange{
			Op:        events.OpUpdate,
			ID:        bookmark.Id,
			OwnerID:   bookmark.UserId,
			Title:     bookmark.Title,
			TargetURL: bookmark.TargetURL,
			CreatedAt: bookmark.CreatedAt,
			UpdatedAt: bookmark.UpdatedAt,
			At:        time.Now(),
		}
		if err := es.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish enrichment update event: %v", err)
		}
	}

	msg.Ack()
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func (es *enrichmentService) fetchPageTitle(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := es.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// The <title> element lives in <head>; 64KB is plenty.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}

	return ExtractTitle(string(body)), nil
}

// ExtractTitle pulls the first <title> text out of an HTML document,
// unescaped and whitespace-collapsed. Empty string when there is none.
func ExtractTitle(htmlBody string) string {
	m := titleRe.FindStringSubmatch(htmlBody)
	if m == nil {
		return ""
	}
	title := html.UnescapeString(m[1])
	return strings.Join(strings.Fields(title), " ")
}
