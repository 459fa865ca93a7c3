package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"bookmarkhub-be/internal/dto"
	"bookmarkhub-be/internal/entity"
	"bookmarkhub-be/internal/pkg/logger"
	"bookmarkhub-be/internal/repository/specification"
	"bookmarkhub-be/internal/repository/unitofwork"
	"bookmarkhub-be/pkg/events"
	pktNats "bookmarkhub-be/pkg/nats"

	"github.com/google/uuid"
)

type IBookmarkService interface {
	List(ctx context.Context, userId uuid.UUID) ([]*dto.BookmarkResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateBookmarkRequest) (*dto.CreateBookmarkResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateBookmarkRequest) (*dto.UpdateBookmarkResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type bookmarkService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewBookmarkService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IBookmarkService {
	return &bookmarkService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// List returns the owner's bookmarks newest first, the order the dashboard
// renders and the invariant live inserts preserve by prepending.
func (s *bookmarkService) List(ctx context.Context, userId uuid.UUID) ([]*dto.BookmarkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	bookmarks, err := uow.BookmarkRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.NewestFirst{},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.BookmarkResponse, len(bookmarks))
	for i, b := range bookmarks {
		res[i] = &dto.BookmarkResponse{
			Id:        b.Id,
			Title:     b.Title,
			TargetURL: b.TargetURL,
			UserId:    b.UserId,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		}
	}
	return res, nil
}

func (s *bookmarkService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateBookmarkRequest) (*dto.CreateBookmarkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	bookmark := entity.Bookmark{
		Id:        uuid.New(),
		Title:     strings.TrimSpace(req.Title),
		TargetURL: strings.TrimSpace(req.TargetURL),
		UserId:    userId,
		CreatedAt: time.Now(),
	}

	if err := uow.BookmarkRepository().Create(ctx, &bookmark); err != nil {
		return nil, err
	}

	s.publishChange(ctx, events.OpInsert, &bookmark)

	// A literal "untitled" gets handed to the enrichment pipeline, which
	// replaces the title from the page itself and echoes an update event.
	if strings.EqualFold(bookmark.Title, "untitled") {
		msgPayload := dto.PublishEnrichBookmarkMessage{BookmarkId: bookmark.Id}
		msgJson, err := json.Marshal(msgPayload)
		if err != nil {
			return nil, err
		}
		if err := s.publisherService.Publish(ctx, msgJson); err != nil {
			s.logger.Warn("BookmarkService", "Failed to queue enrichment", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.CreateBookmarkResponse{
		Id: bookmark.Id,
	}, nil
}

func (s *bookmarkService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateBookmarkRequest) (*dto.UpdateBookmarkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	bookmark, err := uow.BookmarkRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if bookmark == nil {
		return nil, nil // Not found
	}

	bookmark.Title = strings.TrimSpace(req.Title)
	bookmark.TargetURL = strings.TrimSpace(req.TargetURL)
	now := time.Now()
	bookmark.UpdatedAt = &now

	if err := uow.BookmarkRepository().Update(ctx, bookmark); err != nil {
		return nil, err
	}

	s.publishChange(ctx, events.OpUpdate, bookmark)

	return &dto.UpdateBookmarkResponse{
		Id: bookmark.Id,
	}, nil
}

// Delete removes the row scoped to id AND owner. A miss is a no-op, matching
// the store's filtered-delete semantics; no event is emitted for it.
func (s *bookmarkService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.BookmarkRepository().Delete(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	s.publishChange(ctx, events.OpDelete, &entity.Bookmark{Id: id, UserId: userId})
	return nil
}

// publishChange mirrors a committed row mutation onto the event channel.
// Logged but never fatal: the row is already ground truth and clients
// reconcile by refetching.
func (s *bookmarkService) publishChange(ctx context.Context, op events.ChangeOp, b *entity.Bookmark) {
	if s.eventPublisher == nil {
		return
	}

	evt := events.BookmarkChange{
		Op:        op,
		ID:        b.Id,
		OwnerID:   b.UserId,
		Title:     b.Title,
		TargetURL: b.TargetURL,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		At:        time.Now(),
	}
	if op == events.OpDelete {
		evt.Title = ""
		evt.TargetURL = ""
	}

	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("BookmarkService", "Failed to publish change event", map[string]interface{}{
			"op":    string(op),
			"id":    b.Id,
			"error": err.Error(),
		})
	}
}
