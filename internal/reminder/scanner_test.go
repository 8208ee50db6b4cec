package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
)

type stubLister struct {
	tasks    []model.Task
	err      error
	lastFrom int64
	lastTo   int64
}

func (s *stubLister) ListDueBetween(_ context.Context, from, to int64) ([]model.Task, error) {
	s.lastFrom = from
	s.lastTo = to
	return s.tasks, s.err
}

type stubSender struct {
	sent []string
	fail bool
}

func (s *stubSender) SendReminder(_ context.Context, taskID, _ string, _ int64) error {
	if s.fail {
		return errors.New("ntfy down")
	}
	s.sent = append(s.sent, taskID)
	return nil
}

func dueTask(id string, dueAt int64) model.Task {
	return model.Task{ID: id, Text: "Task " + id, DueAt: &dueAt}
}

func TestScanner_WindowBounds(t *testing.T) {
	now := int64(1_000_000_000)
	lister := &stubLister{}
	scanner := NewScanner(lister, &stubSender{}, NewNotifiedSet(), clock.Fixed(now), zap.NewNop(), time.Minute)

	scanner.Scan(context.Background())

	lead := (15 * time.Minute).Milliseconds()
	slop := (30 * time.Second).Milliseconds()
	assert.Equal(t, now+lead-slop, lister.lastFrom)
	assert.Equal(t, now+lead+slop, lister.lastTo)
}

func TestScanner_SendsOncePerTask(t *testing.T) {
	now := int64(1_000_000_000)
	due := now + (15 * time.Minute).Milliseconds()
	lister := &stubLister{tasks: []model.Task{dueTask("task-1", due), dueTask("task-2", due)}}
	sender := &stubSender{}
	scanner := NewScanner(lister, sender, NewNotifiedSet(), clock.Fixed(now), zap.NewNop(), time.Minute)

	scanner.Scan(context.Background())
	assert.Equal(t, []string{"task-1", "task-2"}, sender.sent)

	// Повторный проход в том же окне ничего не дублирует
	scanner.Scan(context.Background())
	assert.Len(t, sender.sent, 2)
}

func TestScanner_RetriesAfterFailure(t *testing.T) {
	now := int64(1_000_000_000)
	due := now + (15 * time.Minute).Milliseconds()
	lister := &stubLister{tasks: []model.Task{dueTask("task-1", due)}}
	sender := &stubSender{fail: true}
	scanner := NewScanner(lister, sender, NewNotifiedSet(), clock.Fixed(now), zap.NewNop(), time.Minute)

	scanner.Scan(context.Background())
	assert.Empty(t, sender.sent, "failed send must not be recorded")

	// Отправитель ожил - следующий проход досылает
	sender.fail = false
	scanner.Scan(context.Background())
	assert.Equal(t, []string{"task-1"}, sender.sent)
}

func TestScanner_ListError(t *testing.T) {
	lister := &stubLister{err: errors.New("db gone")}
	sender := &stubSender{}
	scanner := NewScanner(lister, sender, NewNotifiedSet(), clock.Fixed(1000), zap.NewNop(), time.Minute)

	scanner.Scan(context.Background())
	assert.Empty(t, sender.sent)
}

func TestScanner_EvictsStaleEntries(t *testing.T) {
	now := int64(1_000_000_000)
	due := now + (15 * time.Minute).Milliseconds()
	lister := &stubLister{tasks: []model.Task{dueTask("task-1", due)}}
	sender := &stubSender{}
	notified := NewNotifiedSet()
	scanner := NewScanner(lister, sender, notified, clock.Fixed(now), zap.NewNop(), time.Minute)

	scanner.Scan(context.Background())
	require.Equal(t, 1, notified.Len())

	// Через два часа запись о напоминании должна быть выселена
	later := now + (2 * time.Hour).Milliseconds()
	lister.tasks = nil
	stale := NewScanner(lister, sender, notified, clock.Fixed(later), zap.NewNop(), time.Minute)
	stale.Scan(context.Background())

	assert.Zero(t, notified.Len())
}

func TestScanner_StartStop(t *testing.T) {
	lister := &stubLister{}
	scanner := NewScanner(lister, &stubSender{}, NewNotifiedSet(), clock.System(), zap.NewNop(), 10*time.Millisecond)

	scanner.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	scanner.Stop()

	assert.NotZero(t, lister.lastTo, "scan should have run at least once")
}

func TestNotifiedSet(t *testing.T) {
	set := NewNotifiedSet()

	assert.False(t, set.AlreadySent("task-1"))
	set.MarkSent("task-1", 5000)
	assert.True(t, set.AlreadySent("task-1"))
	assert.Equal(t, 1, set.Len())

	set.MarkSent("task-2", 9000)
	set.EvictBefore(6000)
	assert.False(t, set.AlreadySent("task-1"))
	assert.True(t, set.AlreadySent("task-2"))

	set.Reset()
	assert.Zero(t, set.Len())
}
