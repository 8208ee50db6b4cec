// Package notify отправляет push-уведомления через ntfy.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender - внешний коллаборатор для напоминаний.
// Идемпотентность отправки обеспечивает вызывающий.
type Sender interface {
	SendReminder(ctx context.Context, taskID, text string, dueAt int64) error
}

type NtfySender struct {
	url    string
	topic  string
	token  string
	client *http.Client
	logger *zap.Logger
}

func NewNtfySender(url, topic, token string, logger *zap.Logger) *NtfySender {
	return &NtfySender{
		url:    strings.TrimRight(url, "/"),
		topic:  topic,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (s *NtfySender) SendReminder(ctx context.Context, taskID, text string, dueAt int64) error {
	body := fmt.Sprintf("%s\nDue at %s", text, time.UnixMilli(dueAt).Format("15:04"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/"+s.topic, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Title", "Task Reminder")
	req.Header.Set("Priority", "4")
	req.Header.Set("Tags", "alarm_clock,task")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy: unexpected status %d", resp.StatusCode)
	}

	s.logger.Info("sent ntfy notification", zap.String("task_id", taskID))
	return nil
}
