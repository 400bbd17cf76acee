package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

const mistakesLimit = 10

// renderPage renders one page of the chat's current list.
func (h *Handler) renderPage(c *service.Coordinator, q browseQuery, page int) (string, *tgbotapi.InlineKeyboardMarkup) {
	items := c.Search(q.text, q.filters)

	text, pageItems, totalPages := buildItemsPage(items, page, c.Progress)
	if q.text != "" {
		text = md(fmt.Sprintf("🔎 ”%s”", q.text)) + "\n" + text
	}
	return text, buildPageKeyboard(pageItems, min(max(page, 0), max(totalPages-1, 0)), totalPages)
}

// renderItem renders the card of one catalog item with its toggles.
func (h *Handler) renderItem(c *service.Coordinator, id entities.ItemID) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	item, err := c.Item(id)
	if err != nil {
		return "", nil, err
	}

	p := c.Progress(id)
	kb := buildItemKeyboard(id, p)
	return formatItem(item, p), &kb, nil
}

// renderCard renders the current flashcard, or the end of the deck.
func (h *Handler) renderCard(c *service.Coordinator) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	position, total := c.DeckPosition()

	item, err := c.CurrentCard()
	if errors.Is(err, entities.ErrEndOfDeck) {
		kb := buildDeckEndKeyboard()
		return formatDeckEnd(total), &kb, nil
	}
	if err != nil {
		return "", nil, err
	}

	kb := buildCardKeyboard(item.ID, c.Progress(item.ID))
	return formatCard(item, position, total), &kb, nil
}

// renderQuestion renders a quiz question with its answer buttons.
func (h *Handler) renderQuestion(c *service.Coordinator, q entities.Question) (string, *tgbotapi.InlineKeyboardMarkup) {
	status := c.QuizStatus()
	return formatQuestion(q, status), buildQuizAnswerKeyboard(q, status.Answered)
}

// renderFeedback renders the outcome of an answer below the question prompt.
func (h *Handler) renderFeedback(
	c *service.Coordinator,
	result entities.AnswerResult,
) (string, *tgbotapi.InlineKeyboardMarkup) {
	status := c.QuizStatus()
	text := fmt.Sprintf("%s%s\n\n%s", lrm, bold(result.Prompt), formatAnswerFeedback(result, status))
	kb := buildAnswerFeedbackKeyboard(status.Complete)
	return text, &kb
}

func (h *Handler) renderProgress(c *service.Coordinator) (string, *tgbotapi.InlineKeyboardMarkup) {
	kb := buildProgressKeyboard()
	return formatProgress(c.Stats()), &kb
}

// sendRendered sends text with an optional keyboard as a new message.
func (h *Handler) sendRendered(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := newMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	h.send(msg)
}
