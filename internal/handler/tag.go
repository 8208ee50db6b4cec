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

type TagHandler struct {
	service *service.TagService
	logger  *zap.Logger
}

func NewTagHandler(srv *service.TagService, logger *zap.Logger) *TagHandler {
	return &TagHandler{
		service: srv,
		logger:  logger,
	}
}

// List без since отдает живые теги; с since=<ms> - изменившиеся после
// таймстемпа, включая мягко удаленные
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	var since *int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid since: %q", raw))
			return
		}
		since = &v
	}

	tags, err := h.service.List(r.Context(), since)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tags)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tag, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tag)
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", "empty request body")
		return
	}

	var req model.Tag
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid json: %v", err))
		return
	}

	tag, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/tags/%s", tag.ID))
	respond.JSON(w, r, http.StatusCreated, tag)
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.TagPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", fmt.Sprintf("invalid json: %v", err))
		return
	}

	tag, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
