package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

// callbackView is what a callback turns its message into.
type callbackView struct {
	text  string
	kb    *tgbotapi.InlineKeyboardMarkup
	toast string // short notice shown instead of an edit when text is empty
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	data := decodeCallback(cb.Data)
	c := h.session(ctx, chatID)

	view, err := h.dispatchCallback(ctx, c, chatID, data)
	if err != nil {
		text, expected := userMessage(err)
		if !expected {
			h.logger.Error("callback error",
				zap.Int64("chat_id", chatID),
				zap.String("data", cb.Data),
				zap.Error(err),
			)
		}
		h.answerCallback(cb.ID, text)
		return
	}

	if view.text != "" {
		edit := newEdit(chatID, cb.Message.MessageID, view.text)
		if view.kb != nil {
			edit.ReplyMarkup = view.kb
		}
		h.send(edit)
	}

	// Remove the user's "clock".
	h.answerCallback(cb.ID, view.toast)
}

func (h *Handler) dispatchCallback(
	ctx context.Context,
	c *service.Coordinator,
	chatID int64,
	data callbackData,
) (callbackView, error) {
	switch data.Action {
	case actionPage:
		page, ok := data.intParam(0)
		if !ok {
			return callbackView{}, nil
		}
		text, kb := h.renderPage(c, h.currentBrowse(chatID), page)
		return callbackView{text: text, kb: kb}, nil

	case actionItem:
		text, kb, err := h.renderItem(c, data.itemID(0))
		return callbackView{text: text, kb: kb}, err

	case actionFavorite, actionMemorize:
		return h.handleToggle(c, data)

	case actionCard:
		return h.handleCard(c, data.param(0))

	case actionSort:
		if _, err := c.SortDeck(entities.SortCriterion(data.param(0))); err != nil {
			return callbackView{}, err
		}
		text, kb, err := h.renderCard(c)
		return callbackView{text: text, kb: kb}, err

	case actionAnswer:
		return h.handleChoice(c, data)

	case actionQuiz:
		return h.handleQuiz(c, data.param(0))

	case actionProgress:
		text, kb := h.renderProgress(c)
		return callbackView{text: text, kb: kb}, nil

	case actionReset:
		if data.param(0) != resetConfirm {
			return callbackView{text: md(msgResetCancelled)}, nil
		}
		if err := c.Reset(ctx); err != nil {
			h.logger.Warn("reset not persisted",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
		return callbackView{text: md(msgResetDone)}, nil
	}

	h.logger.Debug("unknown callback", zap.String("data", data.Raw))
	return callbackView{}, nil
}

// handleToggle flips a flag and redraws the flashcard or item card it was
// pressed on.
func (h *Handler) handleToggle(c *service.Coordinator, data callbackData) (callbackView, error) {
	id := data.itemID(0)

	var err error
	if data.Action == actionFavorite {
		_, err = c.ToggleFavorite(id)
	} else {
		_, err = c.ToggleMemorized(id)
	}
	if err != nil {
		return callbackView{}, err
	}

	if c.Mode() == entities.ModeFlashcard {
		if card, err := c.CurrentCard(); err == nil && card.ID == id {
			text, kb, err := h.renderCard(c)
			return callbackView{text: text, kb: kb}, err
		}
	}

	text, kb, err := h.renderItem(c, id)
	return callbackView{text: text, kb: kb}, err
}

func (h *Handler) handleCard(c *service.Coordinator, sub string) (callbackView, error) {
	var err error
	switch sub {
	case cardKnown:
		_, err = c.AnswerCard(entities.CardKnown)
	case cardUnknown:
		_, err = c.AnswerCard(entities.CardUnknown)
	case cardAgain:
		_, err = c.RebuildDeck()
		if errors.Is(err, entities.ErrWrongMode) {
			_, err = c.EnterFlashcard(entities.Filters{})
		}
	default:
		return callbackView{}, nil
	}
	if err != nil {
		return callbackView{}, err
	}

	text, kb, err := h.renderCard(c)
	return callbackView{text: text, kb: kb}, err
}

// handleChoice scores a multiple choice button. Presses on a question that
// was already answered are ignored.
func (h *Handler) handleChoice(c *service.Coordinator, data callbackData) (callbackView, error) {
	answered, ok1 := data.intParam(0)
	index, ok2 := data.intParam(1)
	if !ok1 || !ok2 {
		return callbackView{}, nil
	}

	result, err := c.SubmitChoiceAt(answered, index)
	if errors.Is(err, entities.ErrStaleQuestion) {
		return callbackView{toast: msgStaleQuestion}, nil
	}
	if err != nil {
		return callbackView{}, err
	}

	text, kb := h.renderFeedback(c, result)
	return callbackView{text: text, kb: kb}, nil
}

func (h *Handler) handleQuiz(c *service.Coordinator, sub string) (callbackView, error) {
	var (
		q   entities.Question
		err error
	)

	switch sub {
	case quizStart:
		q, err = c.EnterQuiz()
	case quizNext:
		q, err = c.NextQuestion()
		if errors.Is(err, entities.ErrQuizComplete) {
			kb := buildQuizResultKeyboard()
			return callbackView{text: formatQuizResult(c.QuizStatus()), kb: &kb}, nil
		}
	case quizRestart:
		q, err = c.RestartQuiz()
	default:
		return callbackView{}, nil
	}
	if err != nil {
		return callbackView{}, err
	}

	text, kb := h.renderQuestion(c, q)
	return callbackView{text: text, kb: kb}, nil
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}
