// Package entitlement реализует HTTP-обработчик смены роли и статуса пользователя.
//
// Используется сборщиком платежей и администраторами: после записи кеш
// пользователя сбрасывается, и следующая проверка доступа видит новые значения.
package entitlement

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
	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// Request тело запроса смены доступа.
type Request struct {
	Role   string `json:"role" validate:"required,oneof=guest trial monthly yearly in_person admin"`
	Status string `json:"status" validate:"required,oneof=active paused canceled banned"`
}

// Service описывает смену роли и статуса.
type Service interface {
	ChangeEntitlement(ctx context.Context, userUID string, role models.Role, status models.Status) error
}

// Handler обрабатывает смену доступа пользователя.
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
	const op = "handlers.users.entitlement"
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

	role, _ := models.ParseRole(req.Role)
	status, _ := models.ParseStatus(req.Status)
	if err := h.service.ChangeEntitlement(r.Context(), userUID, role, status); err != nil {
		code, msg := response.StatusFor(err)
		log.Error("failed to change entitlement", sl.Err(err))
		render.Status(r, code)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("entitlement changed", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":     userUID,
		"role":   role,
		"status": status,
	}))
}
