package entities

import (
	"github.com/google/uuid"
)

// Mode is the active study mode of a session.
type Mode string

const (
	ModeBrowse    Mode = "browse"
	ModeFlashcard Mode = "flashcard"
	ModeQuiz      Mode = "quiz"
)

// CardResult is the user's self-assessment of a flashcard.
type CardResult string

const (
	CardKnown   CardResult = "known"
	CardUnknown CardResult = "unknown"
)

// SortCriterion orders the unanswered part of a flashcard deck.
type SortCriterion string

const (
	SortAlphabetical SortCriterion = "alphabetical"
	SortDifficulty   SortCriterion = "difficulty"
	SortSequence     SortCriterion = "sequence"
)

// Filters narrows the catalog. All set filters must hold (AND).
type Filters struct {
	FavoritesOnly bool
	MemorizedOnly bool
	Category      Category // empty means any category
}

// SessionState is the live state of one study session. It is owned by a
// single coordinator; several sessions may coexist in one process.
type SessionState struct {
	ID   string
	Mode Mode

	// Flashcard mode.
	ActiveDeck  []ItemID
	DeckCursor  int
	DeckFilters Filters

	// Quiz mode.
	ActiveQuestion    *Question
	TotalScore        int
	QuestionsAnswered int
	RecentTargets     []ItemID // most recent quiz targets, newest last
}

// NewSessionState creates a session in Browse mode.
func NewSessionState() *SessionState {
	return &SessionState{
		ID:   uuid.NewString(),
		Mode: ModeBrowse,
	}
}

// CurrentItemID returns the item under the deck cursor.
func (s *SessionState) CurrentItemID() (ItemID, bool) {
	if s.DeckCursor < 0 || s.DeckCursor >= len(s.ActiveDeck) {
		return "", false
	}
	return s.ActiveDeck[s.DeckCursor], true
}

// RememberTarget appends a quiz target and keeps only the last limit targets.
func (s *SessionState) RememberTarget(id ItemID, limit int) {
	if limit <= 0 {
		s.RecentTargets = nil
		return
	}
	s.RecentTargets = append(s.RecentTargets, id)
	if over := len(s.RecentTargets) - limit; over > 0 {
		s.RecentTargets = append([]ItemID(nil), s.RecentTargets[over:]...)
	}
}

// ResetQuiz starts a fresh quiz round.
func (s *SessionState) ResetQuiz() {
	s.ActiveQuestion = nil
	s.TotalScore = 0
	s.QuestionsAnswered = 0
	s.RecentTargets = nil
}
