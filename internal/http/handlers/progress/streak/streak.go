// Package streak реализует HTTP-обработчик отметки дня практики.
//
// Вызывается планировщиком от имени администратора для пользователя из пути.
package streak

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/practice-studio/internal/http/response"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/services/progress"
)

// Service описывает продление серии.
type Service interface {
	Streak(ctx context.Context, userUID string) (progress.Result, error)
}

// Handler обрабатывает продление серии.
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
	const op = "handlers.progress.streak"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "id")
	if err := h.validate.Var(userUID, "required,uuid"); err != nil {
		log.Error("invalid user id", slog.String("id", userUID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	res, err := h.service.Streak(r.Context(), userUID)
	if err != nil {
		code, msg := response.StatusFor(err)
		log.Error("failed to update streak", sl.Err(err))
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("streak updated", slog.String("user_uid", userUID), slog.Int("current_streak", res.Stats.CurrentStreak))
	render.JSON(w, r, response.OKWithData(res))
}
