package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookmarkRequest struct {
	Title     string `json:"title" validate:"required"`
	TargetURL string `json:"target_url" validate:"required"`
}

type CreateBookmarkResponse struct {
	Id uuid.UUID `json:"id"`
}

type BookmarkResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	TargetURL string     `json:"target_url"`
	UserId    uuid.UUID  `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type UpdateBookmarkRequest struct {
	Id        uuid.UUID
	Title     string `json:"title" validate:"required"`
	TargetURL string `json:"target_url" validate:"required"`
}

type UpdateBookmarkResponse struct {
	Id uuid.UUID `json:"id"`
}

type PublishEnrichBookmarkMessage struct {
	BookmarkId uuid.UUID `json:"bookmark_id"`
}
