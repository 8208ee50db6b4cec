// Package reminder периодически ищет задачи с приближающимся сроком
// и шлет по ним уведомления.
package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/notify"
)

const (
	// Напоминание уходит за 15 минут до срока; окно +/-30с покрывает
	// дрожание интервала тикера
	leadTime   = 15 * time.Minute
	windowSlop = 30 * time.Second

	// Отправки независимы: таймаут одной не задерживает остальные
	sendTimeout = 10 * time.Second

	// Запись о напоминании держим еще час после срока, потом выселяем
	evictAfter = time.Hour
)

// DueLister - то, что сканеру нужно от хранилища
type DueLister interface {
	ListDueBetween(ctx context.Context, from, to int64) ([]model.Task, error)
}

type Scanner struct {
	repo     DueLister
	sender   notify.Sender
	notified *NotifiedSet
	clock    clock.Clock
	logger   *zap.Logger
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
}

func NewScanner(repo DueLister, sender notify.Sender, notified *NotifiedSet, clk clock.Clock, logger *zap.Logger, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scanner{
		repo:     repo,
		sender:   sender,
		notified: notified,
		clock:    clk,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *Scanner) Start(ctx context.Context) {
	s.logger.Info("Starting reminder scanner", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Scan(ctx)
			}
		}
	}()
}

// Stop останавливает сканер и дожидается завершения текущего прохода
func (s *Scanner) Stop() {
	s.logger.Info("Stopping reminder scanner...")
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("Reminder scanner stopped")
}

// Scan - один проход: выборка задач в окне напоминания и отправка по тем,
// о которых еще не напоминали. Неудачная отправка не помечается, следующий
// проход попробует снова.
func (s *Scanner) Scan(ctx context.Context) {
	now := s.clock.NowMillis()
	from := now + leadTime.Milliseconds() - windowSlop.Milliseconds()
	to := now + leadTime.Milliseconds() + windowSlop.Milliseconds()

	tasks, err := s.repo.ListDueBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("reminder scan failed", zap.Error(err))
		return
	}

	for _, t := range tasks {
		if s.notified.AlreadySent(t.ID) {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := s.sender.SendReminder(sendCtx, t.ID, t.Text, *t.DueAt)
		cancel()
		if err != nil {
			s.logger.Warn("failed to send reminder",
				zap.String("task_id", t.ID),
				zap.Error(err),
			)
			continue
		}

		s.notified.MarkSent(t.ID, *t.DueAt)
		s.logger.Info("Sent reminder",
			zap.String("task_id", t.ID),
			zap.String("text", t.Text),
		)
	}

	s.notified.EvictBefore(now - evictAfter.Milliseconds())
}
