package service

import (
	"fmt"
	"slices"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// DefaultRequeueLookahead is how many cards later an unknown card returns.
const DefaultRequeueLookahead = 5

// FlashcardScheduler builds and advances review decks. The deck itself lives
// in the session state, so one scheduler can serve any number of sessions.
type FlashcardScheduler struct {
	catalog  CatalogReader
	progress ProgressRepository

	lookahead            int
	markMemorizedOnKnown bool
}

// NewFlashcardScheduler creates a new FlashcardScheduler.
func NewFlashcardScheduler(
	catalog CatalogReader,
	progress ProgressRepository,
	lookahead int,
	markMemorizedOnKnown bool,
) *FlashcardScheduler {
	if lookahead < 1 {
		lookahead = DefaultRequeueLookahead
	}
	return &FlashcardScheduler{
		catalog:              catalog,
		progress:             progress,
		lookahead:            lookahead,
		markMemorizedOnKnown: markMemorizedOnKnown,
	}
}

// BuildDeck returns the filtered item ids ordered hardest first.
func (s *FlashcardScheduler) BuildDeck(filters entities.Filters) ([]entities.ItemID, error) {
	if s.catalog.Len() == 0 {
		return nil, entities.ErrCatalogEmpty
	}

	snapshot := s.progress.Snapshot()
	items := Query(s.catalog.All(), snapshot, "", filters)
	return OrderDeck(items, snapshot), nil
}

// OrderDeck sorts items by the review key:
//  1. Higher difficulty first.
//  2. Never seen before seen, then least recently seen first.
//  3. Lower sequence number first.
func OrderDeck(items []entities.Item, progress entities.ProgressSnapshot) []entities.ItemID {
	ordered := make([]entities.Item, len(items))
	copy(ordered, items)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := progress.Lookup(ordered[i].ID), progress.Lookup(ordered[j].ID)

		if a.DifficultyScore != b.DifficultyScore {
			return a.DifficultyScore > b.DifficultyScore
		}

		switch {
		case a.LastSeenAt == nil && b.LastSeenAt != nil:
			return true
		case a.LastSeenAt != nil && b.LastSeenAt == nil:
			return false
		case a.LastSeenAt != nil && !a.LastSeenAt.Equal(*b.LastSeenAt):
			return a.LastSeenAt.Before(*b.LastSeenAt)
		}

		return ordered[i].SequenceNumber < ordered[j].SequenceNumber
	})

	deck := make([]entities.ItemID, len(ordered))
	for i, item := range ordered {
		deck[i] = item.ID
	}
	return deck
}

// Next returns the item under the cursor without advancing.
func (s *FlashcardScheduler) Next(state *entities.SessionState) (entities.Item, error) {
	if state.ActiveDeck == nil {
		return entities.Item{}, entities.ErrNoActiveDeck
	}

	id, ok := state.CurrentItemID()
	if !ok {
		return entities.Item{}, entities.ErrEndOfDeck
	}
	return s.catalog.Get(id)
}

// Answer records the result for the current card and advances the cursor.
// An unknown card is inserted again lookahead positions after the new
// cursor, or at the end of a shorter deck.
func (s *FlashcardScheduler) Answer(
	state *entities.SessionState,
	result entities.CardResult,
) (entities.ProgressRecord, error) {
	if state.ActiveDeck == nil {
		return entities.ProgressRecord{}, entities.ErrNoActiveDeck
	}

	id, ok := state.CurrentItemID()
	if !ok {
		return entities.ProgressRecord{}, entities.ErrEndOfDeck
	}

	var record entities.ProgressRecord
	switch result {
	case entities.CardKnown:
		record = s.progress.RecordAnswer(id, true)
		if s.markMemorizedOnKnown && !record.IsMemorized {
			record = s.progress.MarkMemorized(id, true)
		}
	case entities.CardUnknown:
		record = s.progress.RecordAnswer(id, false)
	default:
		return entities.ProgressRecord{}, fmt.Errorf("unknown card result %q", result)
	}

	state.DeckCursor++
	if result == entities.CardUnknown {
		pos := min(state.DeckCursor+s.lookahead, len(state.ActiveDeck))
		state.ActiveDeck = slices.Insert(state.ActiveDeck, pos, id)
	}

	return record, nil
}

// SortDeck reorders the cards not yet answered. Answered cards keep their
// place.
func (s *FlashcardScheduler) SortDeck(state *entities.SessionState, criterion entities.SortCriterion) error {
	if state.ActiveDeck == nil {
		return entities.ErrNoActiveDeck
	}
	if state.DeckCursor >= len(state.ActiveDeck) {
		return nil
	}

	tail := state.ActiveDeck[state.DeckCursor:]
	items := make([]entities.Item, 0, len(tail))
	for _, id := range tail {
		item, err := s.catalog.Get(id)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	var sorted []entities.ItemID
	switch criterion {
	case entities.SortDifficulty:
		sorted = OrderDeck(items, s.progress.Snapshot())
	case entities.SortSequence:
		sorted = sortItems(items, func(a, b *entities.Item) int {
			return a.SequenceNumber - b.SequenceNumber
		})
	case entities.SortAlphabetical:
		col := collate.New(language.Swedish, collate.IgnoreCase)
		sorted = sortItems(items, func(a, b *entities.Item) int {
			if c := col.CompareString(a.PrimaryText, b.PrimaryText); c != 0 {
				return c
			}
			return col.CompareString(a.Translation, b.Translation)
		})
	default:
		return fmt.Errorf("unknown sort criterion %q", criterion)
	}

	copy(tail, sorted)
	return nil
}

// sortItems orders items by cmp, keeping the input order on ties.
func sortItems(items []entities.Item, cmp func(a, b *entities.Item) int) []entities.ItemID {
	slices.SortStableFunc(items, func(a, b entities.Item) int {
		return cmp(&a, &b)
	})

	ids := make([]entities.ItemID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
