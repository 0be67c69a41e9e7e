package response

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/practice-studio/internal/progression"
	"github.com/magabrotheeeer/practice-studio/internal/storage"
)

// StatusFor сопоставляет ошибку бизнес-логики HTTP статусу и сообщению для клиента.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, progression.ErrInvalidPoints):
		return http.StatusBadRequest, "points must be a positive integer"
	case errors.Is(err, progression.ErrNotEligible):
		return http.StatusBadRequest, "completion threshold not reached"
	case errors.Is(err, progression.ErrMalformedStats):
		return http.StatusUnprocessableEntity, "stored progress is inconsistent"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, storage.ErrVersionConflict):
		return http.StatusConflict, "concurrent update, try again"
	default:
		return http.StatusInternalServerError, "internal service error"
	}
}
