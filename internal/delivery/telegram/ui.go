package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// buildPageKeyboard builds item buttons and pagination for a list page.
func buildPageKeyboard(items []entities.Item, page, totalPages int) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for _, item := range items {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			item.SequenceString(), buildItemCallback(item.ID),
		))
		if len(row) == itemsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Föregående", buildPageCallback(page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Nästa ▶️", buildPageCallback(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// buildItemKeyboard builds the flag toggles of an item card.
func buildItemKeyboard(id entities.ItemID, p entities.ProgressRecord) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(favoriteLabel(p.IsFavorite), buildFavoriteCallback(id)),
			tgbotapi.NewInlineKeyboardButtonData(memorizedLabel(p.IsMemorized), buildMemorizeCallback(id)),
		),
	)
}

// buildCardKeyboard builds the keyboard of a flashcard.
func buildCardKeyboard(id entities.ItemID, p entities.ProgressRecord) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Kan", buildCardCallback(cardKnown)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Kan inte", buildCardCallback(cardUnknown)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(favoriteLabel(p.IsFavorite), buildFavoriteCallback(id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔤 A–Ö", buildSortCallback(entities.SortAlphabetical)),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Svårast", buildSortCallback(entities.SortDifficulty)),
			tgbotapi.NewInlineKeyboardButtonData("🔢 Nr", buildSortCallback(entities.SortSequence)),
		),
	)
}

// buildDeckEndKeyboard offers a new pass after the last card.
func buildDeckEndKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Ny omgång", buildCardCallback(cardAgain)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Min framgång", buildProgressCallback()),
		),
	)
}

// buildQuizAnswerKeyboard builds one button per option.
func buildQuizAnswerKeyboard(q entities.Question, answered int) *tgbotapi.InlineKeyboardMarkup {
	if len(q.Options) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for i, option := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option, buildAnswerCallback(answered, i)),
		))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// buildAnswerFeedbackKeyboard leads to the next question or the round result.
func buildAnswerFeedbackKeyboard(complete bool) tgbotapi.InlineKeyboardMarkup {
	if complete {
		return buildQuizResultKeyboard()
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ Nästa fråga", buildQuizCallback(quizNext)),
		),
	)
}

// buildQuizResultKeyboard builds keyboard for quiz results screen.
func buildQuizResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Nytt quiz", buildQuizCallback(quizRestart)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Min framgång", buildProgressCallback()),
		),
	)
}

// buildProgressKeyboard builds keyboard for progress screen.
func buildProgressKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Uppdatera", buildProgressCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Starta quiz", buildQuizCallback(quizStart)),
		),
	)
}

func buildResetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Ja, nollställ", buildResetConfirmCallback()),
			tgbotapi.NewInlineKeyboardButtonData("Avbryt", buildResetCancelCallback()),
		),
	)
}

func favoriteLabel(on bool) string {
	if on {
		return "⭐ Ta bort favorit"
	}
	return "☆ Favorit"
}

func memorizedLabel(on bool) string {
	if on {
		return "✅ Inlärd"
	}
	return "⬜ Markera inlärd"
}
