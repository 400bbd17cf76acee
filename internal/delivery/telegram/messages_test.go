package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

func testItems(n int) []entities.Item {
	items := make([]entities.Item, n)
	for i := range items {
		items[i] = entities.Item{
			ID:             entities.ItemID(strconv.Itoa(i + 1)),
			PrimaryText:    fmt.Sprintf("ord%d", i+1),
			Translation:    fmt.Sprintf("word %d", i+1),
			SequenceNumber: i + 1,
		}
	}
	return items
}

func noProgress(id entities.ItemID) entities.ProgressRecord {
	return entities.NewProgressRecord(id)
}

func TestBuildItemsPage(t *testing.T) {
	items := testItems(20)

	text, page, total := buildItemsPage(items, 2, noProgress)
	assert.Equal(t, 3, total)
	require.Len(t, page, 4)
	assert.Equal(t, entities.ItemID("17"), page[0].ID)
	assert.Contains(t, text, "sida 3 av 3")

	_, page, _ = buildItemsPage(items, 99, noProgress)
	assert.Equal(t, entities.ItemID("17"), page[0].ID, "page is clamped")

	text, page, total = buildItemsPage(nil, 0, noProgress)
	assert.Zero(t, total)
	assert.Empty(t, page)
	assert.Equal(t, md(msgNoResults), text)
}

func TestFormatItemLine_Flags(t *testing.T) {
	item := testItems(1)[0]
	p := entities.ProgressRecord{ItemID: item.ID, IsFavorite: true, IsMemorized: true}

	line := formatItemLine(item, p)
	assert.Contains(t, line, "ord1")
	assert.Contains(t, line, "⭐✅")
	assert.NotContains(t, formatItemLine(item, noProgress(item.ID)), "⭐")
}

func TestFormatCard_HidesTranslation(t *testing.T) {
	item := testItems(3)[1]

	text := formatCard(item, 1, 3)
	assert.Contains(t, text, "Kort 2 av 3")
	assert.Contains(t, text, "||word 2||")
}

func TestFormatQuestion(t *testing.T) {
	status := service.QuizStatus{Answered: 2, Length: 10, Score: 100, MaxScore: 500}

	mc := formatQuestion(entities.Question{Kind: entities.KindMultipleChoice, PromptText: "ord1"}, status)
	assert.Contains(t, mc, "Fråga 3 av 10")
	assert.NotContains(t, mc, md(msgTypeAnswer))

	fill := formatQuestion(entities.Question{Kind: entities.KindFillBlank, PromptText: "Jag har en _____"}, status)
	assert.Contains(t, fill, md(msgTypeAnswer))
	assert.Contains(t, fill, md("_____"))
}

func TestFormatAnswerFeedback(t *testing.T) {
	open := service.QuizStatus{Answered: 1, Length: 2, Score: 0, MaxScore: 100}
	wrong := formatAnswerFeedback(entities.AnswerResult{Correct: false, CorrectAnswer: "word 1"}, open)
	assert.Contains(t, wrong, "*word 1*")
	assert.NotContains(t, wrong, "Quizet är klart")

	done := service.QuizStatus{Answered: 2, Length: 2, Score: 50, MaxScore: 100, Complete: true}
	right := formatAnswerFeedback(entities.AnswerResult{Correct: true, Points: 50}, done)
	assert.Contains(t, right, "+50")
	assert.Contains(t, right, "Quizet är klart")
	assert.Contains(t, right, "50 / 100")
}

func TestFormatProgress_Badges(t *testing.T) {
	s := service.Summary{
		Total:     99,
		Memorized: 10,
		Badges:    service.Badges(10, 99),
	}

	text := formatProgress(s)
	assert.Contains(t, text, "10 / 99")
	assert.Contains(t, text, "🏅 10 inlärda")
	assert.Contains(t, text, "🔒 33 inlärda")
}

func TestFormatMistakes(t *testing.T) {
	assert.Equal(t, md(msgNoMistakes), formatMistakes(nil))

	item := testItems(1)[0]
	text := formatMistakes([]service.Mistake{{Item: item, Record: entities.ProgressRecord{TimesWrong: 3}}})
	assert.Contains(t, text, "fel 3 gånger")
}

func TestBuildProgressBar(t *testing.T) {
	assert.Equal(t, "[░░░░]", buildProgressBar(0, 0, 4))
	assert.Equal(t, "[██░░]", buildProgressBar(1, 2, 4))
	assert.Equal(t, "[████]", buildProgressBar(9, 2, 4))
}

func TestUserMessage(t *testing.T) {
	text, expected := userMessage(fmt.Errorf("enter quiz: %w", entities.ErrInsufficientCatalog))
	assert.Equal(t, msgInsufficientCatalog, text)
	assert.True(t, expected)

	text, expected = userMessage(errors.New("boom"))
	assert.Equal(t, msgInternalError, text)
	assert.False(t, expected)
}
