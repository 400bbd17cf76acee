package service

import (
	"math/rand"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// OptionsPerQuestion is the number of multiple choice options.
const OptionsPerQuestion = 4

// OptionGenerator generates multiple choice options for quiz questions.
type OptionGenerator struct {
	rng *rand.Rand
}

// NewOptionGenerator creates a new option generator drawing from rng.
func NewOptionGenerator(rng *rand.Rand) *OptionGenerator {
	return &OptionGenerator{rng: rng}
}

// GenerateOptions returns the correct translation of target plus three
// distractors in random order, and the index of the correct option.
func (g *OptionGenerator) GenerateOptions(
	target entities.Item,
	all []entities.Item,
) ([]string, int, error) {
	wrong := g.generateWrongOptions(target, all, OptionsPerQuestion-1)
	if len(wrong) < OptionsPerQuestion-1 {
		return nil, -1, entities.ErrInsufficientCatalog
	}

	options := make([]string, 0, OptionsPerQuestion)
	options = append(options, target.Translation)
	options = append(options, wrong...)

	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == target.Translation {
			correctIndex = i
			break
		}
	}

	return options, correctIndex, nil
}

// generateWrongOptions picks count distinct translations of other items that
// differ from the correct one. Items of the target category are used when
// they provide enough options, otherwise the whole catalog is used.
func (g *OptionGenerator) generateWrongOptions(target entities.Item, all []entities.Item, count int) []string {
	sameCategory := g.candidates(target, all, true)
	if len(sameCategory) >= count {
		return g.pick(sameCategory, count)
	}
	return g.pick(g.candidates(target, all, false), count)
}

// candidates returns the unique translations usable as distractors, in
// catalog order.
func (g *OptionGenerator) candidates(target entities.Item, all []entities.Item, sameCategory bool) []string {
	seen := map[string]bool{target.Translation: true}
	out := make([]string, 0, len(all))
	for _, item := range all {
		if item.ID == target.ID || item.Translation == "" || seen[item.Translation] {
			continue
		}
		if sameCategory && item.Category != target.Category {
			continue
		}
		seen[item.Translation] = true
		out = append(out, item.Translation)
	}
	return out
}

// pick samples count elements without replacement.
func (g *OptionGenerator) pick(pool []string, count int) []string {
	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}
