package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/practice-studio/internal/http/response"
	"github.com/magabrotheeeer/practice-studio/internal/lib/sl"
	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// Authorizer определяет проверку доступа пользователя для набора ролей.
type Authorizer interface {
	Authorize(ctx context.Context, userUID string, roles []models.Role) (bool, error)
}

// EntitlementMiddleware создает middleware, пропускающий только пользователей
// с действующим доступом для одной из ролей. Роль из токена не учитывается,
// решение принимается по текущей записи пользователя.
func EntitlementMiddleware(log *slog.Logger, svc Authorizer, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := UserUIDFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			allowed, err := svc.Authorize(r.Context(), userUID, roles)
			if err != nil {
				log.Error("failed to check entitlement", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if !allowed {
				log.Warn("access denied", slog.String("user_uid", userUID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
