// Package check реализует HTTP-обработчик проверки доступа к контенту.
//
// Handler читает метку видимости из URL, UID пользователя из контекста
// и возвращает решение сервиса доступа вместе с остатком пробного периода.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/practice-studio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/practice-studio/internal/http/response"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/models"
	"github.com/magabrotheeeer/practice-studio/internal/services/access"
)

// Service описывает проверку доступа.
type Service interface {
	Check(ctx context.Context, userUID string, visibility models.Visibility) (access.Decision, error)
}

// Handler обрабатывает запросы проверки доступа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	visibility := models.Visibility(chi.URLParam(r, "visibility"))
	if visibility != models.VisibilityPublicSample && visibility != models.VisibilityMembers {
		log.Error("unknown visibility", slog.String("visibility", string(visibility)))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown visibility"))
		return
	}

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	decision, err := h.service.Check(r.Context(), userUID, visibility)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check access"))
		return
	}

	render.JSON(w, r, response.OKWithData(decision))
}
