package entities

import "time"

const (
	wrongAnswerPenalty = 2.0 // difficulty added on a wrong answer
	rightAnswerReward  = 1.0 // difficulty removed on a correct answer
)

// ProgressRecord stores the learning progress of a single catalog item.
// It references the item by ID only; the catalog never points back at it.
type ProgressRecord struct {
	ItemID          ItemID     `json:"-"`
	IsFavorite      bool       `json:"favorite"`
	IsMemorized     bool       `json:"memorized"`
	DifficultyScore float64    `json:"difficulty_score"` // >= 0, higher is harder
	LastSeenAt      *time.Time `json:"last_seen_at"`     // nil until the item is answered once
	TimesCorrect    int        `json:"times_correct"`
	TimesWrong      int        `json:"times_wrong"`
}

// NewProgressRecord returns the default record for an item that has no history.
func NewProgressRecord(id ItemID) ProgressRecord {
	return ProgressRecord{ItemID: id}
}

// RecordAnswer applies the difficulty rule for a single answer:
//  1. A correct answer lowers the difficulty by one, never below zero.
//  2. A wrong answer raises the difficulty by two.
//
// The matching counter is incremented and LastSeenAt is set to now.
func (p ProgressRecord) RecordAnswer(correct bool, now time.Time) ProgressRecord {
	if correct {
		p.DifficultyScore = max(0, p.DifficultyScore-rightAnswerReward)
		p.TimesCorrect++
	} else {
		p.DifficultyScore += wrongAnswerPenalty
		p.TimesWrong++
	}

	seen := now
	p.LastSeenAt = &seen
	return p
}

// Seen reports whether the item was answered at least once.
func (p ProgressRecord) Seen() bool {
	return p.LastSeenAt != nil
}

// Sanitize clamps values restored from storage into their valid ranges.
func (p ProgressRecord) Sanitize() ProgressRecord {
	p.DifficultyScore = max(0, p.DifficultyScore)
	p.TimesCorrect = max(0, p.TimesCorrect)
	p.TimesWrong = max(0, p.TimesWrong)
	return p
}

// Accuracy returns the share of correct answers, or 0 if never answered.
func (p ProgressRecord) Accuracy() float64 {
	total := p.TimesCorrect + p.TimesWrong
	if total == 0 {
		return 0
	}
	return float64(p.TimesCorrect) / float64(total)
}

// ProgressSnapshot is a point-in-time copy of progress records keyed by item.
type ProgressSnapshot map[ItemID]ProgressRecord

// Lookup returns the record for id, or the defaults if the item has none.
func (s ProgressSnapshot) Lookup(id ItemID) ProgressRecord {
	if p, ok := s[id]; ok {
		return p
	}
	return NewProgressRecord(id)
}
