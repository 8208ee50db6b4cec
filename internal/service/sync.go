package service

import (
	"context"
	"fmt"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/repo"
)

// SyncService принимает пакет клиентских изменений и возвращает серверную дельту.
// Само слияние по last-write-wins выполняет репозиторий в одной транзакции.
type SyncService struct {
	repo  repo.TaskRepository
	clock clock.Clock
}

func NewSyncService(repo repo.TaskRepository, clk clock.Clock) *SyncService {
	return &SyncService{repo: repo, clock: clk}
}

func (s *SyncService) Sync(ctx context.Context, req model.SyncRequest) (model.SyncResponse, error) {
	// Весь пакет проверяется до первой записи: частичное применение сделало бы
	// клиентские ретраи неоднозначными
	for i := range req.Tasks {
		if err := validateSyncTask(req.Tasks[i]); err != nil {
			return model.SyncResponse{}, fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}

	changed, err := s.repo.SyncBatch(ctx, req.Tasks, req.LastSyncAt)
	if err != nil {
		return model.SyncResponse{}, err
	}

	return model.SyncResponse{
		Tasks: changed,
		// server_time снимается после применения всех записей, клиент подставит
		// его как last_sync_at в следующий вызов
		ServerTime: s.clock.NowMillis(),
		DeletedIDs: []string{},
	}, nil
}

func validateSyncTask(t model.Task) error {
	if t.ID == "" {
		return ErrValidation
	}
	return validateTaskFields(t.Text, t.Description, t.Tag, t.Recurrence)
}
