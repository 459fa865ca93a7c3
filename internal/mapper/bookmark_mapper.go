package mapper

import (
	"time"

	"bookmarkhub-be/internal/entity"
	"bookmarkhub-be/internal/model"
)

type BookmarkMapper struct{}

func NewBookmarkMapper() *BookmarkMapper {
	return &BookmarkMapper{}
}

func (m *BookmarkMapper) ToEntity(b *model.Bookmark) *entity.Bookmark {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	return &entity.Bookmark{
		Id:        b.Id,
		Title:     b.Title,
		TargetURL: b.TargetURL,
		UserId:    b.UserId,
		CreatedAt: b.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BookmarkMapper) ToModel(b *entity.Bookmark) *model.Bookmark {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	return &model.Bookmark{
		Id:        b.Id,
		Title:     b.Title,
		TargetURL: b.TargetURL,
		UserId:    b.UserId,
		CreatedAt: b.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BookmarkMapper) ToEntities(bookmarks []*model.Bookmark) []*entity.Bookmark {
	entities := make([]*entity.Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
