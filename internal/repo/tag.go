package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mkarpushin/todo-sync-api/internal/model"
)

const tagCols = `id, name, color, is_default, created_at, updated_at, deleted_at`

type TagRepo struct {
	db PgxPool
}

func NewTagRepo(db PgxPool) *TagRepo {
	return &TagRepo{
		db: db,
	}
}

func scanTag(row rowScanner) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(
		&t.ID, &t.Name, &t.Color, &t.IsDefault,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	return t, err
}

// Create может вернуть ErrorConflict из-за общего unique-констрейнта на name:
// он срабатывает и при совпадении с мягко удаленным тегом, хотя сервисная
// проверка дубликатов смотрит только на живые строки.
func (r *TagRepo) Create(ctx context.Context, t model.Tag) (model.Tag, error) {
	created, err := scanTag(r.db.QueryRow(ctx, `
		INSERT INTO tags (`+tagCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+tagCols+`
	`, t.ID, t.Name, t.Color, t.IsDefault, t.CreatedAt, t.UpdatedAt, t.DeletedAt))
	return created, mapError(err)
}

func (r *TagRepo) Get(ctx context.Context, id string) (model.Tag, error) {
	t, err := scanTag(r.db.QueryRow(ctx, `
		SELECT `+tagCols+`
		FROM tags
		WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TagRepo) GetByName(ctx context.Context, name string) (model.Tag, error) {
	t, err := scanTag(r.db.QueryRow(ctx, `
		SELECT `+tagCols+`
		FROM tags
		WHERE name = $1
	`, name))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TagRepo) List(ctx context.Context, includeDeleted bool) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tagCols+`
		FROM tags
		WHERE ($1::boolean OR deleted_at IS NULL)
		ORDER BY name
	`, includeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

// ListSince отдает теги с updated_at строго больше since, включая мягко
// удаленные - иначе клиент, забирающий изменения по таймстемпу, не узнает
// об удалении.
func (r *TagRepo) ListSince(ctx context.Context, since int64) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tagCols+`
		FROM tags
		WHERE updated_at > $1
		ORDER BY name
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

func (r *TagRepo) Update(ctx context.Context, id string, p model.TagPatch, updatedAt int64) (model.Tag, error) {
	t, err := scanTag(r.db.QueryRow(ctx, `
		UPDATE tags
		SET name = COALESCE($2::text, name),
		    color = COALESCE($3::text, color),
		    is_default = COALESCE($4::boolean, is_default),
		    updated_at = $5
		WHERE id = $1
		RETURNING `+tagCols+`
	`, id, p.Name, p.Color, p.IsDefault, updatedAt))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, mapError(err)
}

func (r *TagRepo) SoftDelete(ctx context.Context, id string, deletedAt int64) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE tags SET deleted_at = $2, updated_at = $2 WHERE id = $1
	`, id, deletedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func collectTags(rows pgx.Rows) ([]model.Tag, error) {
	tags := make([]model.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
