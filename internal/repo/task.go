package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mkarpushin/todo-sync-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskCols = `id, text, description, completed, important, tag, due_at, recurrence, recurrence_alt, created_at, updated_at, deleted_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	db PgxPool
}

func NewTaskRepo(db PgxPool) *TaskRepo { // Конструктор
	return &TaskRepo{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	var rec string
	err := row.Scan(
		&t.ID, &t.Text, &t.Description, &t.Completed, &t.Important, &t.Tag,
		&t.DueAt, &rec, &t.RecurrenceAlt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	t.Recurrence = model.Recurrence(rec)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := scanTask(r.db.QueryRow(ctx, `
		INSERT INTO tasks (`+taskCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+taskCols+`
	`, t.ID, t.Text, t.Description, t.Completed, t.Important, t.Tag,
		t.DueAt, string(t.Recurrence), t.RecurrenceAlt, t.CreatedAt, t.UpdatedAt, t.DeletedAt))
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id string) (model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `
		SELECT `+taskCols+`
		FROM tasks
		WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	query := `
		SELECT ` + taskCols + `
		FROM tasks
		WHERE ($1::text IS NULL OR tag = $1)
		  AND ($2::boolean IS NULL OR completed = $2)
		  AND ($3::boolean IS NULL OR important = $3)
		  AND ($4::boolean OR deleted_at IS NULL)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, filter.Tag, filter.Completed, filter.Important, filter.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update применяет только присланные поля; отсутствующие не трогает.
// due_at передается с явным флагом присутствия, чтобы отличать null от "не прислали".
func (r *TaskRepo) Update(ctx context.Context, id string, p model.TaskPatch, updatedAt int64) (model.Task, error) {
	var rec *string
	if p.Recurrence != nil {
		s := string(*p.Recurrence)
		rec = &s
	}

	t, err := scanTask(r.db.QueryRow(ctx, `
		UPDATE tasks
		SET text = COALESCE($2::text, text),
		    description = COALESCE($3::text, description),
		    completed = COALESCE($4::boolean, completed),
		    important = COALESCE($5::boolean, important),
		    tag = COALESCE($6::text, tag),
		    due_at = CASE WHEN $7::boolean THEN $8::bigint ELSE due_at END,
		    recurrence = COALESCE($9::text, recurrence),
		    recurrence_alt = COALESCE($10::boolean, recurrence_alt),
		    updated_at = $11
		WHERE id = $1
		RETURNING `+taskCols+`
	`, id, p.Text, p.Description, p.Completed, p.Important, p.Tag,
		p.DueAt.Set, p.DueAt.Value, rec, p.RecurrenceAlt, updatedAt))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

// SoftDelete ставит deleted_at и updated_at в один и тот же момент,
// чтобы удаление было видно клиентам, синхронизирующимся по updated_at.
func (r *TaskRepo) SoftDelete(ctx context.Context, id string, deletedAt int64) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE tasks SET deleted_at = $2, updated_at = $2 WHERE id = $1
	`, id, deletedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) HardDelete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// SyncBatch выполняет весь sync-запрос в одной транзакции: применяет пакет
// клиентских изменений по правилу last-write-wins и считает дельту для ответа.
//
// Правило разрешения конфликта: клиент побеждает строго при
// client.updated_at > server.updated_at. Равные таймстемпы оставляют серверную
// версию (<= - осознанный выбор, повторная отправка тех же данных не перетирает
// независимые серверные изменения). Проигравшая клиентская запись молча
// отбрасывается, ошибкой это не является.
//
// Каждая строка применяется одним upsert. Отдельная проверка существования
// перед вставкой здесь не годится: две параллельные синхронизации с одним
// новым id обе не нашли бы строку и вторая падала бы на первичном ключе.
// ON CONFLICT ждет чужую вставку и дальше решает по тому же правилу updated_at.
func (r *TaskRepo) SyncBatch(ctx context.Context, incoming []model.Task, lastSyncAt *int64) (out []model.Task, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	// Новая строка вставляется с клиентскими полями как есть, включая id,
	// created_at и deleted_at (клиент может прислать сразу удаленную).
	// При конфликте id и created_at не меняются никогда.
	const upsert = `
		INSERT INTO tasks (` + taskCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			description = EXCLUDED.description,
			completed = EXCLUDED.completed,
			important = EXCLUDED.important,
			tag = EXCLUDED.tag,
			due_at = EXCLUDED.due_at,
			recurrence = EXCLUDED.recurrence,
			recurrence_alt = EXCLUDED.recurrence_alt,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE tasks.updated_at < EXCLUDED.updated_at`

	syncedIDs := make([]string, 0, len(incoming))
	for _, in := range incoming {
		syncedIDs = append(syncedIDs, in.ID)

		if _, err = tx.Exec(ctx, upsert,
			in.ID, in.Text, in.Description, in.Completed, in.Important, in.Tag,
			in.DueAt, string(in.Recurrence), in.RecurrenceAlt,
			in.CreatedAt, in.UpdatedAt, in.DeletedAt,
		); err != nil {
			return nil, err
		}
	}

	// Дельта: изменившееся с прошлой синхронизации, без строк из входного пакета -
	// их авторитетную версию клиент уже держит, принял сервер его запись или нет.
	// Первая синхронизация (last_sync_at == null) возвращает все строки,
	// включая мягко удаленные.
	var rows pgx.Rows
	if lastSyncAt != nil {
		rows, err = tx.Query(ctx, `
			SELECT `+taskCols+`
			FROM tasks
			WHERE updated_at > $1 AND id <> ALL($2)
			ORDER BY updated_at, id
		`, *lastSyncAt, syncedIDs)
	} else {
		rows, err = tx.Query(ctx, `
			SELECT `+taskCols+`
			FROM tasks
			WHERE id <> ALL($1)
			ORDER BY updated_at, id
		`, syncedIDs)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListDueBetween выбирает невыполненные неудаленные задачи с due_at в окне
func (r *TaskRepo) ListDueBetween(ctx context.Context, from, to int64) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskCols+`
		FROM tasks
		WHERE due_at IS NOT NULL
		  AND due_at >= $1 AND due_at <= $2
		  AND completed = false
		  AND deleted_at IS NULL
		ORDER BY due_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE completed),
		       COUNT(*) FILTER (WHERE important),
		       COUNT(*) FILTER (WHERE deleted_at IS NOT NULL)
		FROM tasks
	`).Scan(&s.Total, &s.Completed, &s.Important, &s.Deleted)
	return s, err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrorConflict
	}
	return err
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
