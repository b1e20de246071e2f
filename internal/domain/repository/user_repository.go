package repository

import (
	"context"

	"github.com/yourplaces/api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error

	// AppendPlace and RemovePlace maintain the place_ids back-reference
	// list. They must only be called inside TxManager.WithTx together with
	// the corresponding place write.
	AppendPlace(ctx context.Context, userID, placeID string) error
	RemovePlace(ctx context.Context, userID, placeID string) error
}
