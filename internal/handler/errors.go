package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkarpushin/todo-sync-api/internal/repo"
	"github.com/mkarpushin/todo-sync-api/internal/service"
	"github.com/mkarpushin/todo-sync-api/pkg/respond"
)

// handleErrors отображает ошибки слоев в HTTP-статусы.
// Внутренние ошибки логируются с контекстом, наружу уходит общий 500.
func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, service.ErrDuplicateName):
		respond.Error(w, r, http.StatusBadRequest, "duplicate_name", "tag with this name already exists")
	case errors.Is(err, service.ErrDefaultTag):
		respond.Error(w, r, http.StatusBadRequest, "default_tag", "default tags cannot be deleted")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusBadRequest, "conflict", "conflicts with existing row")
	default:
		logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
