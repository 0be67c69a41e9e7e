// Package points реализует HTTP-обработчик ручного начисления очков.
//
// Маршрут доступен только администраторам: пользователь, которому
// начисляются очки, задаётся в пути запроса, а не берётся из токена.
package points

import (
	"context"
	"encoding/json"
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

// Request тело запроса начисления очков. Знак очков проверяет движок.
type Request struct {
	Points int    `json:"points"`
	Reason string `json:"reason" validate:"required,max=100"`
}

// Service описывает начисление очков.
type Service interface {
	Award(ctx context.Context, userUID string, points int, reason string) (progress.Result, error)
}

// Handler обрабатывает начисление очков.
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
	const op = "handlers.progress.points"
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

	res, err := h.service.Award(r.Context(), userUID, req.Points, req.Reason)
	if err != nil {
		code, msg := response.StatusFor(err)
		log.Error("failed to award points", sl.Err(err))
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("points awarded", slog.String("user_uid", userUID), slog.Int("points", req.Points), slog.String("reason", req.Reason))
	render.JSON(w, r, response.OKWithData(res))
}
