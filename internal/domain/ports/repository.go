package ports

import (
	"context"

	"cineplayer/internal/domain"
)

type MediaRepository interface {
	Get(ctx context.Context, id domain.MediaID) (domain.MediaItem, error)
	List(ctx context.Context, limit int) ([]domain.MediaItem, error)
	Upsert(ctx context.Context, item domain.MediaItem) error
	Delete(ctx context.Context, id domain.MediaID) error
}
