package progression

import "errors"

var (
	// ErrInvalidPoints начисление неположительного количества очков или переполнение.
	ErrInvalidPoints = errors.New("invalid points")
	// ErrMalformedStats снимок прогресса нарушает инварианты: ошибка хранилища выше по цепочке.
	ErrMalformedStats = errors.New("malformed stats")
	// ErrUnknownLevelCatalog каталог уровней пуст или без базового уровня с порогом 0.
	ErrUnknownLevelCatalog = errors.New("unknown level catalog")
	// ErrUnknownBadgeCatalog каталог бейджей пуст или содержит повторяющиеся ключи.
	ErrUnknownBadgeCatalog = errors.New("unknown badge catalog")
	// ErrInvalidPolicy недопустимые значения политики начисления.
	ErrInvalidPolicy = errors.New("invalid progression policy")
	// ErrNotEligible просмотр не достиг порога завершения.
	ErrNotEligible = errors.New("completion threshold not reached")
)
