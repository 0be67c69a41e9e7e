// Package complete реализует HTTP-обработчик завершения контента.
//
// Handler принимает идентификатор контента и, опционально, длительность просмотра.
// Если переданы оба поля просмотра, сервис применяет порог завершения. В ответе
// возвращается новый снимок прогресса, начисленные очки и новые бейджи.
package complete

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/practice-studio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/practice-studio/internal/http/response"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/services/progress"
)

// Request тело запроса завершения контента.
type Request struct {
	ContentID   string `json:"content_id" validate:"required,max=200"`
	WatchedSec  *int   `json:"watched_sec,omitempty" validate:"omitempty,gte=0"`
	DurationSec *int   `json:"duration_sec,omitempty" validate:"omitempty,gt=0"`
}

// Service описывает завершение контента.
type Service interface {
	Complete(ctx context.Context, userUID string, req progress.Completion) (progress.Result, error)
}

// Handler обрабатывает завершение контента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.complete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.Complete(r.Context(), userUID, progress.Completion{
		ContentID:   req.ContentID,
		WatchedSec:  req.WatchedSec,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		code, msg := response.StatusFor(err)
		log.Error("failed to complete content", sl.Err(err))
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("content completed", slog.String("content_id", req.ContentID))
	render.JSON(w, r, response.OKWithData(res))
}
