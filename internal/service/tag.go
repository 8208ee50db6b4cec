package service

import (
	"context"
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/repo"
)

var (
	ErrDuplicateName = errors.New("duplicate tag name")
	ErrDefaultTag    = errors.New("default tags cannot be deleted")
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type TagService struct {
	repo  repo.TagRepository
	clock clock.Clock
}

func NewTagService(repo repo.TagRepository, clk clock.Clock) *TagService {
	return &TagService{repo: repo, clock: clk}
}

// Create проверяет дубликаты только среди живых тегов. Общий unique-констрейнт
// в БД при совпадении с мягко удаленным именем все равно сработает и вернется
// как конфликт - расхождение сохранено сознательно.
func (s *TagService) Create(ctx context.Context, t model.Tag) (model.Tag, error) {
	if err := validateTagName(t.Name); err != nil {
		return t, err
	}
	if !colorRe.MatchString(t.Color) {
		return t, ErrValidation
	}

	existing, err := s.repo.GetByName(ctx, t.Name)
	if err == nil && existing.DeletedAt == nil {
		return t, ErrDuplicateName
	}
	if err != nil && !errors.Is(err, repo.ErrorNotFound) {
		return t, err
	}

	now := s.clock.NowMillis()
	t.ID = model.NewID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DeletedAt = nil

	return s.repo.Create(ctx, t)
}

func (s *TagService) Get(ctx context.Context, id string) (model.Tag, error) {
	return s.repo.Get(ctx, id)
}

// List без since отдает живые теги; со since - все изменившиеся после
// таймстемпа, включая удаленные
func (s *TagService) List(ctx context.Context, since *int64) ([]model.Tag, error) {
	if since != nil {
		return s.repo.ListSince(ctx, *since)
	}
	return s.repo.List(ctx, false)
}

func (s *TagService) Update(ctx context.Context, id string, p model.TagPatch) (model.Tag, error) {
	if p.Name != nil {
		if err := validateTagName(*p.Name); err != nil {
			return model.Tag{}, err
		}
	}
	if p.Color != nil && !colorRe.MatchString(*p.Color) {
		return model.Tag{}, ErrValidation
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}
	if p.IsEmpty() { // Пустой патч не двигает updated_at
		return existing, nil
	}

	if p.Name != nil && *p.Name != existing.Name {
		nameCheck, err := s.repo.GetByName(ctx, *p.Name)
		if err == nil && nameCheck.DeletedAt == nil {
			return model.Tag{}, ErrDuplicateName
		}
		if err != nil && !errors.Is(err, repo.ErrorNotFound) {
			return model.Tag{}, err
		}
	}

	return s.repo.Update(ctx, id, p, s.clock.NowMillis())
}

// Delete - мягкое удаление; дефолтные теги не удаляются
func (s *TagService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return ErrDefaultTag
	}
	return s.repo.SoftDelete(ctx, id, s.clock.NowMillis())
}

func validateTagName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return ErrValidation
	}
	return nil
}
