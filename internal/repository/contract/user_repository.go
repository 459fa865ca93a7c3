package contract

import (
	"context"

	"bookmarkhub-be/internal/entity"
	"bookmarkhub-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
