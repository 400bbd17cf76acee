package service

import (
	"sort"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// badgeThresholds are memorized-item counts that earn a badge. Completing
// the whole catalog is always a badge as well.
var badgeThresholds = []int{1, 10, 33, 50}

// Badge is a memorization milestone.
type Badge struct {
	Threshold int
	Earned    bool
}

// Summary aggregates the progress of one learner over the catalog.
type Summary struct {
	Total      int
	Memorized  int
	Favorites  int
	InProgress int // answered at least once, not memorized
	NotStarted int // never answered, not memorized

	TimesCorrect int
	TimesWrong   int

	Score             int
	QuestionsAnswered int
	Streak            entities.Streak
	Badges            []Badge
}

// Percent returns the memorized share of the catalog in percent.
func (s Summary) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Memorized) * 100 / float64(s.Total)
}

// Accuracy returns the share of correct answers in percent.
func (s Summary) Accuracy() float64 {
	total := s.TimesCorrect + s.TimesWrong
	if total == 0 {
		return 0
	}
	return float64(s.TimesCorrect) * 100 / float64(total)
}

// BuildSummary counts progress over items. Records of items that are not in
// the catalog are ignored.
func BuildSummary(items []entities.Item, progress entities.ProgressSnapshot) Summary {
	s := Summary{Total: len(items)}

	for _, item := range items {
		p := progress.Lookup(item.ID)

		if p.IsFavorite {
			s.Favorites++
		}
		switch {
		case p.IsMemorized:
			s.Memorized++
		case p.Seen() || p.TimesCorrect+p.TimesWrong > 0:
			s.InProgress++
		default:
			s.NotStarted++
		}

		s.TimesCorrect += p.TimesCorrect
		s.TimesWrong += p.TimesWrong
	}

	s.Badges = Badges(s.Memorized, s.Total)
	return s
}

// Badges lists the milestones reachable in a catalog of total items.
func Badges(memorized, total int) []Badge {
	badges := make([]Badge, 0, len(badgeThresholds)+1)
	for _, t := range badgeThresholds {
		if t >= total {
			break
		}
		badges = append(badges, Badge{Threshold: t, Earned: memorized >= t})
	}
	if total > 0 {
		badges = append(badges, Badge{Threshold: total, Earned: memorized >= total})
	}
	return badges
}

// Mistake is an item answered wrong at least once.
type Mistake struct {
	Item   entities.Item
	Record entities.ProgressRecord
}

// TopMistakes returns up to limit items with the most wrong answers, ties
// broken by difficulty and then by catalog order.
func TopMistakes(items []entities.Item, progress entities.ProgressSnapshot, limit int) []Mistake {
	mistakes := make([]Mistake, 0)
	for _, item := range items {
		if p := progress.Lookup(item.ID); p.TimesWrong > 0 {
			mistakes = append(mistakes, Mistake{Item: item, Record: p})
		}
	}

	sort.SliceStable(mistakes, func(i, j int) bool {
		a, b := mistakes[i].Record, mistakes[j].Record
		if a.TimesWrong != b.TimesWrong {
			return a.TimesWrong > b.TimesWrong
		}
		return a.DifficultyScore > b.DifficultyScore
	})

	if limit > 0 && len(mistakes) > limit {
		mistakes = mistakes[:limit]
	}
	return mistakes
}
