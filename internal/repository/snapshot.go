package repository

import (
	"encoding/json"
	"fmt"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// SnapshotVersion is the current persisted layout version.
//
//	0: legacy layout with favorite and memorized id lists only
//	1: per-item records plus session counters
const SnapshotVersion = 1

// SessionMeta holds the session-level values persisted next to the records.
// TotalScore and QuestionsAnswered describe the current quiz round, the
// lifetime fields every answer ever given.
type SessionMeta struct {
	TotalScore        int
	QuestionsAnswered int
	LifetimeScore     int
	LifetimeAnswered  int
	Streak            entities.Streak
	SearchHistory     []string
}

// snapshot is the persisted layout. Missing fields decode to the documented
// defaults, so older or partial snapshots are accepted.
type snapshot struct {
	Version           int                                         `json:"version"`
	TotalScore        int                                         `json:"total_score"`
	QuestionsAnswered int                                         `json:"questions_answered"`
	LifetimeScore     int                                         `json:"lifetime_score,omitempty"`
	LifetimeAnswered  int                                         `json:"lifetime_answered,omitempty"`
	Records           map[entities.ItemID]entities.ProgressRecord `json:"records,omitempty"`
	Streak            entities.Streak                             `json:"streak"`
	SearchHistory     []string                                    `json:"search_history,omitempty"`

	// Version 0 fields.
	Favorites []entities.ItemID `json:"favorites,omitempty"`
	Memorized []entities.ItemID `json:"memorized,omitempty"`
}

// EncodeSnapshot serializes records and meta in the current layout.
func EncodeSnapshot(records entities.ProgressSnapshot, meta SessionMeta) ([]byte, error) {
	s := snapshot{
		Version:           SnapshotVersion,
		TotalScore:        meta.TotalScore,
		QuestionsAnswered: meta.QuestionsAnswered,
		LifetimeScore:     meta.LifetimeScore,
		LifetimeAnswered:  meta.LifetimeAnswered,
		Records:           records,
		Streak:            meta.Streak,
		SearchHistory:     meta.SearchHistory,
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot. Older layouts are migrated and
// out-of-range values are clamped.
func DecodeSnapshot(data []byte) (entities.ProgressSnapshot, SessionMeta, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, SessionMeta{}, fmt.Errorf("%w: %v", entities.ErrCorruptSnapshot, err)
	}

	if s.Version < SnapshotVersion {
		s = migrateV0(s)
	}

	records := make(entities.ProgressSnapshot, len(s.Records))
	for id, p := range s.Records {
		if id == "" {
			continue
		}
		p.ItemID = id
		records[id] = p.Sanitize()
	}

	meta := SessionMeta{
		TotalScore:        max(0, s.TotalScore),
		QuestionsAnswered: max(0, s.QuestionsAnswered),
		Streak:            s.Streak,
		SearchHistory:     s.SearchHistory,
	}
	// Snapshots without lifetime fields count the stored round only.
	meta.LifetimeScore = max(meta.TotalScore, s.LifetimeScore)
	meta.LifetimeAnswered = max(meta.QuestionsAnswered, s.LifetimeAnswered)
	return records, meta, nil
}

// migrateV0 folds the legacy favorite and memorized lists into records.
func migrateV0(s snapshot) snapshot {
	if s.Records == nil {
		s.Records = make(map[entities.ItemID]entities.ProgressRecord)
	}

	for _, id := range s.Favorites {
		p, ok := s.Records[id]
		if !ok {
			p = entities.NewProgressRecord(id)
		}
		p.IsFavorite = true
		s.Records[id] = p
	}
	for _, id := range s.Memorized {
		p, ok := s.Records[id]
		if !ok {
			p = entities.NewProgressRecord(id)
		}
		p.IsMemorized = true
		s.Records[id] = p
	}

	s.Favorites = nil
	s.Memorized = nil
	s.Version = SnapshotVersion
	return s
}
