package telegram

import (
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/service"
)

// chatListener tells a chat once that its progress is not being saved.
type chatListener struct {
	service.NopListener

	h      *Handler
	chatID int64
	warned atomic.Bool
}

func (l *chatListener) OnWarning(err error) {
	l.h.logger.Warn("session warning",
		zap.Int64("chat_id", l.chatID),
		zap.Error(err),
	)

	if l.warned.CompareAndSwap(false, true) {
		// Called with the session locked; sending must not block it.
		go l.h.sendError(l.chatID, msgStorageUnavailable)
	}
}

// Listener returns the session listener of a learner created by Learner.
func (h *Handler) Listener(learner string) service.Listener {
	chatID, err := strconv.ParseInt(learner, 10, 64)
	if err != nil {
		return service.NopListener{}
	}
	return &chatListener{h: h, chatID: chatID}
}
