package repo

import (
	"context"

	"github.com/mkarpushin/todo-sync-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id string, p model.TaskPatch, updatedAt int64) (model.Task, error)
	SoftDelete(ctx context.Context, id string, deletedAt int64) error
	HardDelete(ctx context.Context, id string) error
	SyncBatch(ctx context.Context, incoming []model.Task, lastSyncAt *int64) ([]model.Task, error)
	ListDueBetween(ctx context.Context, from, to int64) ([]model.Task, error)
	SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
	GetStats(ctx context.Context) (Stats, error)
}

// TagRepository определяет интерфейс для работы с тегами
type TagRepository interface {
	Create(ctx context.Context, t model.Tag) (model.Tag, error)
	Get(ctx context.Context, id string) (model.Tag, error)
	GetByName(ctx context.Context, name string) (model.Tag, error)
	List(ctx context.Context, includeDeleted bool) ([]model.Tag, error)
	ListSince(ctx context.Context, since int64) ([]model.Tag, error)
	Update(ctx context.Context, id string, p model.TagPatch, updatedAt int64) (model.Tag, error)
	SoftDelete(ctx context.Context, id string, deletedAt int64) error
}

// Stats - агрегаты по задачам для /stats
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Important int64 `json:"important"`
	Deleted   int64 `json:"deleted"`
}
