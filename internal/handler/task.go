package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkarpushin/todo-sync-api/internal/model"
	"github.com/mkarpushin/todo-sync-api/internal/service"
	"github.com/mkarpushin/todo-sync-api/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	sync    *service.SyncService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, syncSrv *service.SyncService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		sync:    syncSrv,
		logger:  logger,
	}
}

func (h *TaskHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req model.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode sync request", zap.Error(err))
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid json: %v", err))
		return
	}

	resp, err := h.sync.Sync(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", "empty request body")
		return
	}

	var req model.Task
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid json: %v", err))
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), req, idempKey)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/tasks/%s", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

// Get отдает задачу по id, мягко удаленные тоже видны
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filter.Tag = &tag
	}
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid completed: %q", raw))
			return
		}
		filter.Completed = &v
	}
	if raw := r.URL.Query().Get("important"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid important: %q", raw))
			return
		}
		filter.Important = &v
	}
	if raw := r.URL.Query().Get("include_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid include_deleted: %q", raw))
			return
		}
		filter.IncludeDeleted = v
	}

	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.HardDelete(r.Context(), id); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}
