package service

import (
	"math/rand"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// DefaultRecentExclusion is how many recent quiz targets are not asked again.
const DefaultRecentExclusion = 5

// QuestionSelector picks quiz targets, preferring difficult items.
type QuestionSelector struct {
	rng *rand.Rand
}

// NewQuestionSelector creates a new QuestionSelector drawing from rng.
func NewQuestionSelector(rng *rand.Rand) *QuestionSelector {
	return &QuestionSelector{rng: rng}
}

// Select picks one of candidates. See SelectTarget.
func (s *QuestionSelector) Select(
	candidates []entities.Item,
	progress entities.ProgressSnapshot,
	exclude []entities.ItemID,
) (entities.Item, bool) {
	return SelectTarget(s.rng, candidates, progress, exclude)
}

// SelectTarget draws an item with probability proportional to its
// difficulty score plus one. Items in exclude are skipped unless nothing else
// is left. It reports false only for an empty candidate list.
func SelectTarget(
	rng *rand.Rand,
	candidates []entities.Item,
	progress entities.ProgressSnapshot,
	exclude []entities.ItemID,
) (entities.Item, bool) {
	if len(candidates) == 0 {
		return entities.Item{}, false
	}

	pool := withoutIDs(candidates, exclude)
	if len(pool) == 0 {
		pool = candidates
	}

	weights := make([]float64, len(pool))
	var total float64
	for i, item := range pool {
		weights[i] = progress.Lookup(item.ID).DifficultyScore + 1
		total += weights[i]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return pool[i], true
		}
		r -= w
	}
	return pool[len(pool)-1], true
}

// withoutIDs returns the items whose id is not in ids.
func withoutIDs(items []entities.Item, ids []entities.ItemID) []entities.Item {
	if len(ids) == 0 {
		return items
	}

	skip := make(map[entities.ItemID]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}

	out := make([]entities.Item, 0, len(items))
	for _, item := range items {
		if _, ok := skip[item.ID]; !ok {
			out = append(out, item)
		}
	}
	return out
}
