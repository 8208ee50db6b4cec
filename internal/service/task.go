package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo  repo.TaskRepository
	clock clock.Clock
}

func NewTaskService(repo repo.TaskRepository, clk clock.Clock) *TaskService {
	return &TaskService{repo: repo, clock: clk}
}

func (s *TaskService) Create(ctx context.Context, t model.Task, idempKey string) (model.Task, error) {
	// Значения по умолчанию как у клиента
	if t.Tag == "" {
		t.Tag = "General"
	}
	if t.Recurrence == "" {
		t.Recurrence = model.RecurrenceNone
	}

	if err := validateTaskFields(t.Text, t.Description, t.Tag, t.Recurrence); err != nil {
		return t, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, existingID)
		}
	}

	// Прямое создание: id и таймстемпы назначает сервер, клиентские игнорируются
	now := s.clock.NowMillis()
	t.ID = model.NewID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DeletedAt = nil

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, created.ID)
	}

	return created, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	return s.repo.List(ctx, filter)
}

func (s *TaskService) Update(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	if err := validateTaskPatch(p); err != nil {
		return model.Task{}, err
	}
	if p.IsEmpty() { // Пустой патч не двигает updated_at
		return s.repo.Get(ctx, id)
	}
	return s.repo.Update(ctx, id, p, s.clock.NowMillis())
}

func (s *TaskService) SoftDelete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id, s.clock.NowMillis())
}

// HardDelete удаляет строку физически. Необратимо и не попадает в sync:
// другие клиенты об этом удалении не узнают.
func (s *TaskService) HardDelete(ctx context.Context, id string) error {
	return s.repo.HardDelete(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.repo.GetStats(ctx)
}

func validateTaskFields(text, description, tag string, rec model.Recurrence) error {
	if strings.TrimSpace(text) == "" {
		return ErrValidation
	}
	if utf8.RuneCountInString(text) > 500 {
		return ErrValidation
	}
	if utf8.RuneCountInString(description) > 2000 {
		return ErrValidation
	}
	// Пустой тег допустим: прямое создание подставляет General до валидации,
	// а sync хранит клиентскую строку как есть
	if utf8.RuneCountInString(tag) > 50 {
		return ErrValidation
	}
	if !rec.Valid() {
		return ErrValidation
	}
	return nil
}

func validateTaskPatch(p model.TaskPatch) error {
	if p.Text != nil && (strings.TrimSpace(*p.Text) == "" || utf8.RuneCountInString(*p.Text) > 500) {
		return ErrValidation
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > 2000 {
		return ErrValidation
	}
	if p.Tag != nil && (*p.Tag == "" || utf8.RuneCountInString(*p.Tag) > 50) {
		return ErrValidation
	}
	if p.Recurrence != nil && !p.Recurrence.Valid() {
		return ErrValidation
	}
	return nil
}
