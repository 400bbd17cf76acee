package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// browseHandler shows the first page of items matching text and filters.
func (h *Handler) browseHandler(text string, filters entities.Filters) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		c := h.session(ctx, chatID)
		if _, err := c.EnterBrowse(); err != nil {
			return err
		}

		q := browseQuery{text: strings.TrimSpace(text), filters: filters}
		if q.text != "" {
			c.RecordSearch(q.text)
		}
		h.setBrowse(chatID, q)

		text, kb := h.renderPage(c, q, 0)
		h.sendRendered(chatID, text, kb)
		return nil
	}
}

func (h *Handler) flashcardHandler(filters entities.Filters) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		c := h.session(ctx, chatID)
		if _, err := c.EnterFlashcard(filters); err != nil {
			return err
		}

		text, kb, err := h.renderCard(c)
		if err != nil {
			return err
		}
		h.sendRendered(chatID, text, kb)
		return nil
	}
}

// quizHandler enters Quiz mode with questions of kind, or of the configured
// kind when kind is empty.
func (h *Handler) quizHandler(kind entities.QuestionKind) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		c := h.session(ctx, chatID)
		c.SetQuizKind(kind)

		q, err := c.EnterQuiz()
		if err != nil {
			return err
		}

		text, kb := h.renderQuestion(c, q)
		h.sendRendered(chatID, text, kb)
		return nil
	}
}

func (h *Handler) progressHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text, kb := h.renderProgress(h.session(ctx, chatID))
		h.sendRendered(chatID, text, kb)
		return nil
	}
}

func (h *Handler) mistakesHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		c := h.session(ctx, chatID)
		h.send(newMessage(chatID, formatMistakes(c.Mistakes(mistakesLimit))))
		return nil
	}
}

func (h *Handler) historyHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		c := h.session(ctx, chatID)
		h.send(newMessage(chatID, formatHistory(c.SearchHistory())))
		return nil
	}
}

// textHandler handles plain text: an answer to an open fill-in question,
// a catalog number, or a search.
func (h *Handler) textHandler(text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}

		c := h.session(ctx, chatID)

		if q, ok := c.ActiveQuestion(); ok && q.Kind == entities.KindFillBlank {
			result, err := c.SubmitAnswer(text)
			if err != nil {
				return err
			}
			reply, kb := h.renderFeedback(c, result)
			h.sendRendered(chatID, reply, kb)
			return nil
		}

		if n, err := strconv.Atoi(text); err == nil {
			id, ok := findBySequence(c.Search("", entities.Filters{}), n)
			if !ok {
				return entities.ErrItemNotFound
			}
			reply, kb, err := h.renderItem(c, id)
			if err != nil {
				return err
			}
			h.sendRendered(chatID, reply, kb)
			return nil
		}

		return h.browseHandler(text, entities.Filters{})(ctx, chatID)
	}
}

func findBySequence(items []entities.Item, n int) (entities.ItemID, bool) {
	for _, item := range items {
		if item.SequenceNumber == n {
			return item.ID, true
		}
	}
	return "", false
}

// parseDeckFilters reads the optional /flash argument: favorites, memorized
// or a category name.
func parseDeckFilters(args string) entities.Filters {
	arg := strings.ToLower(strings.TrimSpace(args))
	switch arg {
	case "":
		return entities.Filters{}
	case "favorites", "favoriter":
		return entities.Filters{FavoritesOnly: true}
	case "memorized", "inlärda":
		return entities.Filters{MemorizedOnly: true}
	default:
		return entities.Filters{Category: entities.Category(arg)}
	}
}

func (h *Handler) setBrowse(chatID int64, q browseQuery) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.browse[chatID] = q
}

func (h *Handler) currentBrowse(chatID int64) browseQuery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.browse[chatID]
}
