package contract

import (
	"context"

	"bookmarkhub-be/internal/entity"
	"bookmarkhub-be/internal/repository/specification"
)

type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *entity.Bookmark) error
	Update(ctx context.Context, bookmark *entity.Bookmark) error
	// Delete removes rows matching the specs and reports how many went away,
	// so callers can tell a scoped miss from a real delete.
	Delete(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Bookmark, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Bookmark, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
