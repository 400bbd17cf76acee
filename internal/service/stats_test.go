package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

func TestBuildSummary(t *testing.T) {
	seen := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	progress := entities.ProgressSnapshot{
		"1":       {ItemID: "1", IsMemorized: true, IsFavorite: true, TimesCorrect: 3, LastSeenAt: &seen},
		"2":       {ItemID: "2", TimesWrong: 1, DifficultyScore: 2, LastSeenAt: &seen},
		"3":       {ItemID: "3", IsFavorite: true},
		"retired": {ItemID: "retired", IsMemorized: true, TimesWrong: 9},
	}

	s := BuildSummary(makeItems(4), progress)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Memorized)
	assert.Equal(t, 2, s.Favorites)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 2, s.NotStarted)
	assert.Equal(t, 3, s.TimesCorrect)
	assert.Equal(t, 1, s.TimesWrong)
	assert.InDelta(t, 25.0, s.Percent(), 0.001)
	assert.InDelta(t, 75.0, s.Accuracy(), 0.001)
}

func TestBuildSummary_Empty(t *testing.T) {
	s := BuildSummary(nil, nil)
	assert.Zero(t, s.Percent())
	assert.Zero(t, s.Accuracy())
	assert.Empty(t, s.Badges)
}

func TestBadges(t *testing.T) {
	t.Run("NinetyNineNames", func(t *testing.T) {
		badges := Badges(33, 99)
		require.Len(t, badges, 5)
		assert.Equal(t, []Badge{
			{Threshold: 1, Earned: true},
			{Threshold: 10, Earned: true},
			{Threshold: 33, Earned: true},
			{Threshold: 50, Earned: false},
			{Threshold: 99, Earned: false},
		}, badges)
	})

	t.Run("SmallCatalog", func(t *testing.T) {
		assert.Equal(t, []Badge{
			{Threshold: 1, Earned: true},
			{Threshold: 10, Earned: true},
		}, Badges(10, 10))
	})
}

func TestTopMistakes(t *testing.T) {
	progress := entities.ProgressSnapshot{
		"1": {ItemID: "1", TimesWrong: 1},
		"2": {ItemID: "2", TimesWrong: 3, DifficultyScore: 2},
		"3": {ItemID: "3", TimesWrong: 3, DifficultyScore: 6},
		"4": {ItemID: "4", TimesCorrect: 5},
	}

	mistakes := TopMistakes(makeItems(5), progress, 2)
	require.Len(t, mistakes, 2)
	assert.Equal(t, entities.ItemID("3"), mistakes[0].Item.ID)
	assert.Equal(t, entities.ItemID("2"), mistakes[1].Item.ID)

	assert.Len(t, TopMistakes(makeItems(5), progress, 0), 3)
}
