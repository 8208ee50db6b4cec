package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/repo"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id string) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id string, p model.TaskPatch, updatedAt int64) (model.Task, error) {
	args := m.Called(ctx, id, p, updatedAt)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) SoftDelete(ctx context.Context, id string, deletedAt int64) error {
	args := m.Called(ctx, id, deletedAt)
	return args.Error(0)
}

func (m *MockTaskRepository) HardDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) SyncBatch(ctx context.Context, incoming []model.Task, lastSyncAt *int64) ([]model.Task, error) {
	args := m.Called(ctx, incoming, lastSyncAt)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListDueBetween(ctx context.Context, from, to int64) ([]model.Task, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, key string, resourceID string) error {
	args := m.Called(ctx, key, resourceID)
	return args.Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRepository) GetStats(ctx context.Context) (repo.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(repo.Stats), args.Error(1)
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		task      model.Task
		idempKey  string
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name: "successful creation with defaults",
			task: model.Task{
				Text: "Test Task",
			},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
					return t.Text == "Test Task" &&
						t.Tag == "General" &&
						t.Recurrence == model.RecurrenceNone &&
						t.ID != "" &&
						t.CreatedAt == 9000 && t.UpdatedAt == 9000 &&
						t.DeletedAt == nil
				})).Return(model.Task{ID: "generated", Text: "Test Task"}, nil)
			},
		},
		{
			name: "validation error - empty text",
			task: model.Task{
				Text: "   ",
			},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "validation error - text too long",
			task: model.Task{
				Text: strings.Repeat("x", 501),
			},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "validation error - bad recurrence",
			task: model.Task{
				Text:       "Test",
				Recurrence: "yearly",
			},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "idempotency - key exists",
			task: model.Task{
				Text: "Test Task",
			},
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetIdempotencyKey", mock.Anything, "key-123").Return("task-42", nil)
				m.On("Get", mock.Anything, "task-42").Return(model.Task{
					ID:   "task-42",
					Text: "Test Task",
				}, nil)
			},
		},
		{
			name: "idempotency - new key",
			task: model.Task{
				Text: "Test Task",
			},
			idempKey: "key-456",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetIdempotencyKey", mock.Anything, "key-456").Return("", repo.ErrorNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(model.Task{
					ID:   "task-1",
					Text: "Test Task",
				}, nil)
				m.On("SaveIdempotencyKey", mock.Anything, "key-456", "task-1").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo, clock.Fixed(9000))
			result, err := service.Create(context.Background(), tt.task, tt.idempKey)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, result.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	t.Run("passes patch and server time", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		text := "Updated"
		patch := model.TaskPatch{Text: &text}
		mockRepo.On("Update", mock.Anything, "task-1", patch, int64(9000)).
			Return(model.Task{ID: "task-1", Text: "Updated", UpdatedAt: 9000}, nil)

		service := NewTaskService(mockRepo, clock.Fixed(9000))
		updated, err := service.Update(context.Background(), "task-1", patch)

		require.NoError(t, err)
		assert.Equal(t, int64(9000), updated.UpdatedAt)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects invalid patch before repo call", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		service := NewTaskService(mockRepo, clock.Fixed(9000))

		empty := ""
		_, err := service.Update(context.Background(), "task-1", model.TaskPatch{Text: &empty})

		assert.ErrorIs(t, err, ErrValidation)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("empty patch returns row untouched", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, "task-1").
			Return(model.Task{ID: "task-1", Text: "Original", UpdatedAt: 5000}, nil)

		service := NewTaskService(mockRepo, clock.Fixed(9000))
		got, err := service.Update(context.Background(), "task-1", model.TaskPatch{})

		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.UpdatedAt)
		mockRepo.AssertNotCalled(t, "Update")
	})
}

func TestTaskService_SoftDelete_UsesClock(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("SoftDelete", mock.Anything, "task-1", int64(9000)).Return(nil)

	service := NewTaskService(mockRepo, clock.Fixed(9000))
	require.NoError(t, service.SoftDelete(context.Background(), "task-1"))
	mockRepo.AssertExpectations(t)
}
