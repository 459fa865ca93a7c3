package unitofwork

import (
	"context"

	"bookmarkhub-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	BookmarkRepository() contract.BookmarkRepository
}
