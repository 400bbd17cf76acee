// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

// Error messages.
const (
	msgCatalogEmpty        = "Ordlistan är tom. Det finns inget att studera ännu."
	msgInsufficientCatalog = "Ordlistan har för få ord för den här frågetypen."
	msgQuizComplete        = "Quizet är slut. Starta ett nytt med /quiz."
	msgNoActiveQuestion    = "Det finns ingen aktiv fråga. Starta ett quiz med /quiz."
	msgEndOfDeck           = "Alla kort är genomgångna. Starta en ny omgång med /flash."
	msgNoActiveDeck        = "Ingen kortlek är aktiv. Starta med /flash."
	msgWrongMode           = "Det går inte just nu. Byt läge med /browse, /flash eller /quiz."
	msgItemNotFound        = "Ordet finns inte i ordlistan."
	msgStorageUnavailable  = "Framgången kunde inte sparas. Du kan fortsätta, men ändringar kan gå förlorade."
	msgInternalError       = "Något gick fel. Försök igen senare."
	msgStaleQuestion       = "Den frågan är redan besvarad."
	msgNoResults           = "Inga träffar."
	msgNoMistakes          = "Inga felsvar ännu. Bra jobbat!"
	msgNoHistory           = "Inga sökningar ännu."
	msgResetConfirm        = "Vill du verkligen nollställa all framgång? Det går inte att ångra."
	msgResetDone           = "Framgången är nollställd."
	msgResetCancelled      = "Nollställningen avbröts."
	msgTypeAnswer          = "Skriv det saknade ordet som svar."
	msgUnknownCommand      = "Okänt kommando. Skriv /help för att se alla kommandon."
)

const (
	lrm          = "\u200E"
	itemsPerPage = 8
	itemsPerRow  = 4
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// spoiler hides text until the learner taps it.
func spoiler(s string) string {
	return "||" + md(s) + "||"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

func welcomeMessage() string {
	var sb strings.Builder

	sb.WriteString(bold("SnabbaLexin"))
	sb.WriteString("\n\n")
	sb.WriteString(md("Lär dig ord på svenska och arabiska i din egen takt. Ord du missar kommer tillbaka oftare, ord du kan får vila."))
	sb.WriteString("\n\n")
	sb.WriteString(helpMessage())

	return sb.String()
}

func helpMessage() string {
	lines := []string{
		"/browse [sökord] · bläddra eller sök",
		"/favorites · dina favoriter",
		"/memorized · inlärda ord",
		"/flash [favorites|memorized|kategori] · flashkort",
		"/quiz · flervalsquiz",
		"/fill · quiz med luckmeningar",
		"/progress · din framgång",
		"/mistakes · ord du ofta missar",
		"/history · senaste sökningar",
		"/reset · nollställ framgången",
	}

	var sb strings.Builder
	sb.WriteString(bold("Kommandon"))
	sb.WriteString("\n")
	for _, l := range lines {
		sb.WriteString(md(l))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(md("Skriv ett ord för att söka, eller ett nummer för att öppna ett ord."))
	return sb.String()
}

// flags renders the favorite and memorized markers of a record.
func flags(p entities.ProgressRecord) string {
	var s string
	if p.IsFavorite {
		s += "⭐"
	}
	if p.IsMemorized {
		s += "✅"
	}
	return s
}

// formatItemLine renders one list row.
func formatItemLine(item entities.Item, p entities.ProgressRecord) string {
	line := fmt.Sprintf("%s%s. %s · %s", lrm, item.SequenceString(), item.PrimaryText, item.Translation)
	if f := flags(p); f != "" {
		line += " " + f
	}
	return md(line)
}

// buildItemsPage renders one page of a list and returns the number of pages.
func buildItemsPage(
	items []entities.Item,
	page int,
	lookup func(entities.ItemID) entities.ProgressRecord,
) (text string, pageItems []entities.Item, totalPages int) {
	totalPages = (len(items) + itemsPerPage - 1) / itemsPerPage
	if totalPages == 0 {
		return md(msgNoResults), nil, 0
	}

	page = min(max(page, 0), totalPages-1)
	pageItems = paginateItems(items, page, itemsPerPage)

	var sb strings.Builder
	sb.WriteString(md(fmt.Sprintf("📖 %d ord · sida %d av %d", len(items), page+1, totalPages)))
	sb.WriteString("\n\n")
	for _, item := range pageItems {
		sb.WriteString(formatItemLine(item, lookup(item.ID)))
		sb.WriteString("\n")
	}

	return sb.String(), pageItems, totalPages
}

func paginateItems(items []entities.Item, page, perPage int) []entities.Item {
	start := page * perPage
	if start >= len(items) {
		return nil
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}

// formatItem renders the full card of an item.
func formatItem(item entities.Item, p entities.ProgressRecord) string {
	var sb strings.Builder

	sb.WriteString(lrm)
	sb.WriteString(bold(fmt.Sprintf("%s. %s", item.SequenceString(), item.PrimaryText)))
	if f := flags(p); f != "" {
		sb.WriteString(" " + md(f))
	}
	sb.WriteString("\n\n")

	if len(item.Alternates) > 0 {
		sb.WriteString(md("Även: " + strings.Join(item.Alternates, ", ")))
		sb.WriteString("\n")
	}
	sb.WriteString(bold("Översättning: "))
	sb.WriteString(md(item.Translation))
	sb.WriteString("\n")

	if item.Meaning != "" {
		sb.WriteString(bold("Betydelse: "))
		sb.WriteString(md(item.Meaning))
		sb.WriteString("\n")
	}
	if item.Example != "" {
		sb.WriteString("\n")
		sb.WriteString(italic(item.Example))
		sb.WriteString("\n")
		if item.ExampleTranslation != "" {
			sb.WriteString(md(item.ExampleTranslation))
			sb.WriteString("\n")
		}
	}

	if p.TimesCorrect+p.TimesWrong > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("Rätt %d · Fel %d · Svårighet %.0f", p.TimesCorrect, p.TimesWrong, p.DifficultyScore)))
	}

	return sb.String()
}

// formatCard renders a flashcard with the translation hidden.
func formatCard(item entities.Item, position, total int) string {
	var sb strings.Builder

	sb.WriteString(md(fmt.Sprintf("🃏 Kort %d av %d", position+1, total)))
	sb.WriteString("\n\n")
	sb.WriteString(lrm)
	sb.WriteString(bold(item.PrimaryText))
	sb.WriteString("\n\n")
	sb.WriteString(spoiler(item.Translation))
	if item.Meaning != "" {
		sb.WriteString("\n")
		sb.WriteString(spoiler(item.Meaning))
	}

	return sb.String()
}

func formatDeckEnd(total int) string {
	return fmt.Sprintf("%s\n\n%s",
		bold("🎉 Omgången är klar!"),
		md(fmt.Sprintf("Du har gått igenom %d kort.", total)),
	)
}

// formatQuestion renders a quiz question with the round position.
func formatQuestion(q entities.Question, status service.QuizStatus) string {
	header := md(fmt.Sprintf("Fråga %d av %d · %d poäng", status.Answered+1, status.Length, status.Score))

	if q.Kind == entities.KindFillBlank {
		return fmt.Sprintf("%s\n\n%s%s\n\n%s", header, lrm, bold(q.PromptText), italic(msgTypeAnswer))
	}
	return fmt.Sprintf("%s\n\n%s%s", header, lrm, bold(q.PromptText))
}

// formatAnswerFeedback formats feedback for a quiz answer.
func formatAnswerFeedback(result entities.AnswerResult, status service.QuizStatus) string {
	var head string
	if result.Correct {
		head = md(fmt.Sprintf("✅ Rätt! +%d poäng", result.Points))
	} else {
		head = fmt.Sprintf("%s\n\n%s %s", md("❌ Fel"), md("Rätt svar:"), bold(result.CorrectAnswer))
	}

	if status.Complete {
		return head + "\n\n" + formatQuizResult(status)
	}
	return head
}

// formatQuizResult formats the result of a finished round.
func formatQuizResult(status service.QuizStatus) string {
	return fmt.Sprintf("%s\n%s %s\n%s",
		md("🏁 Quizet är klart!"),
		md("Poäng:"),
		bold(fmt.Sprintf("%d / %d", status.Score, status.MaxScore)),
		md(buildProgressBar(status.Score, status.MaxScore, 10)),
	)
}

// formatProgress renders the learner summary.
func formatProgress(s service.Summary) string {
	var sb strings.Builder

	sb.WriteString(md("📊 Din framgång"))
	sb.WriteString("\n\n")
	sb.WriteString(md(buildProgressBar(s.Memorized, s.Total, 20)))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("✅ Inlärda: %d / %d (%.1f%%)", s.Memorized, s.Total, s.Percent())))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("📖 Pågående: %d", s.InProgress)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⏳ Ej påbörjade: %d", s.NotStarted)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⭐ Favoriter: %d", s.Favorites)))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("🎯 Träffsäkerhet: %.1f%%", s.Accuracy())))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("🏆 Poäng: %d (%d frågor)", s.Score, s.QuestionsAnswered)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("🔥 Dagar i rad: %d", s.Streak.Days)))

	if len(s.Badges) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(bold("Märken"))
		sb.WriteString("\n")
		for _, b := range s.Badges {
			mark := "🔒"
			if b.Earned {
				mark = "🏅"
			}
			sb.WriteString(md(fmt.Sprintf("%s %d inlärda", mark, b.Threshold)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// formatMistakes renders the most missed items.
func formatMistakes(mistakes []service.Mistake) string {
	if len(mistakes) == 0 {
		return md(msgNoMistakes)
	}

	var sb strings.Builder
	sb.WriteString(bold("❗ Ord du ofta missar"))
	sb.WriteString("\n\n")
	for i, m := range mistakes {
		sb.WriteString(md(fmt.Sprintf("%d. %s%s · %s (fel %d gånger)",
			i+1, lrm, m.Item.PrimaryText, m.Item.Translation, m.Record.TimesWrong)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatHistory(history []string) string {
	if len(history) == 0 {
		return md(msgNoHistory)
	}

	var sb strings.Builder
	sb.WriteString(bold("🔎 Senaste sökningar"))
	sb.WriteString("\n\n")
	for _, h := range history {
		sb.WriteString(md("· " + h))
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildProgressBar creates an ASCII progress bar.
func buildProgressBar(current, total, length int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", length) + "]"
	}

	filled := int(float64(current) / float64(total) * float64(length))
	if filled > length {
		filled = length
	}

	empty := length - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s]", bar)
}
