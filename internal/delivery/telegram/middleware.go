package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := fn(ctx, chatID); err != nil {
			text, expected := userMessage(err)
			if expected {
				h.logger.Debug("handle declined",
					zap.Int64("chat_id", chatID),
					zap.Error(err),
				)
			} else {
				h.logger.Error("handle error",
					zap.Int64("chat_id", chatID),
					zap.Error(err),
				)
			}
			h.sendError(chatID, text)
			return nil
		}
		return nil
	}
}

// userMessage maps an error to the text shown in the chat. expected is false
// for errors the learner cannot cause.
func userMessage(err error) (text string, expected bool) {
	switch {
	case errors.Is(err, entities.ErrCatalogEmpty):
		return msgCatalogEmpty, true
	case errors.Is(err, entities.ErrInsufficientCatalog):
		return msgInsufficientCatalog, true
	case errors.Is(err, entities.ErrQuizComplete):
		return msgQuizComplete, true
	case errors.Is(err, entities.ErrNoActiveQuestion):
		return msgNoActiveQuestion, true
	case errors.Is(err, entities.ErrStaleQuestion):
		return msgStaleQuestion, true
	case errors.Is(err, entities.ErrEndOfDeck):
		return msgEndOfDeck, true
	case errors.Is(err, entities.ErrNoActiveDeck):
		return msgNoActiveDeck, true
	case errors.Is(err, entities.ErrWrongMode):
		return msgWrongMode, true
	case errors.Is(err, entities.ErrItemNotFound):
		return msgItemNotFound, true
	case errors.Is(err, entities.ErrStorageUnavailable):
		return msgStorageUnavailable, false
	default:
		return msgInternalError, false
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newMessage(chatID, md(text)))
}
