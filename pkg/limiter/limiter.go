// Пакет ограничивает длину сохраняемого и преобразуемого текста.
// По умолчанию действует локальный лимит из конфигурации, при заданном EXTERNAL_LIMITER_URL
// решение принимает внешний сервис.
package limiter

import (
	"errors"
	"log/slog"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/config"
	"github.com/gofrs/uuid"
)

// ErrTextTooLong длина текста превышает лимит.
var ErrTextTooLong = errors.New("text length exceeds limit")

type LimiterInt interface {
	// GetTextLimit возвращает максимальную длину текста в символах, -1 если лимит неизвестен.
	GetTextLimit(documentId uuid.UUID) int
	// CheckTextLength возвращает ErrTextTooLong, если длина недопустима. uuid.Nil означает
	// преобразование без документа.
	CheckTextLength(documentId uuid.UUID, length int) error
}

var Limiter LimiterInt = CommunityLimiter{MaxTextLength: 100000}

func Init(cfg *config.Config) {
	if cfg.ExternalLimiterURL == nil {
		slog.Info("Using Community limiter", "maxTextLength", cfg.MaxTextLength)
		Limiter = CommunityLimiter{MaxTextLength: cfg.MaxTextLength}
		return
	}
	slog.Info("Using External limiter", "host", cfg.ExternalLimiterURL.Host)
	Limiter = NewExternalLimiter(cfg.ExternalLimiterURL, cfg.LimiterToken)
}

type CommunityLimiter struct {
	MaxTextLength int
}

func (c CommunityLimiter) GetTextLimit(documentId uuid.UUID) int {
	return c.MaxTextLength
}

func (c CommunityLimiter) CheckTextLength(documentId uuid.UUID, length int) error {
	if c.MaxTextLength > 0 && length > c.MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}
