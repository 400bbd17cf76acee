package service

import (
	"context"
	"time"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/repository"
)

// CatalogReader is the read-only view of the item catalog.
type CatalogReader interface {
	Len() int
	All() []entities.Item
	Get(id entities.ItemID) (entities.Item, error)
	Position(id entities.ItemID) int
}

// ProgressRepository stores per-item progress of one learner.
type ProgressRepository interface {
	Get(id entities.ItemID) entities.ProgressRecord
	Update(id entities.ItemID, fn func(entities.ProgressRecord) entities.ProgressRecord) entities.ProgressRecord
	MarkFavorite(id entities.ItemID, favorite bool) entities.ProgressRecord
	MarkMemorized(id entities.ItemID, memorized bool) entities.ProgressRecord
	RecordAnswer(id entities.ItemID, correct bool) entities.ProgressRecord
	Snapshot() entities.ProgressSnapshot
	Reset()
	Now() time.Time
}

// SnapshotStore loads and writes whole progress snapshots.
type SnapshotStore interface {
	ProgressRepository
	Key() string
	MemoryOnly() bool
	Load(ctx context.Context) (repository.SessionMeta, error)
	Persist(ctx context.Context, meta repository.SessionMeta) error
}

// Listener receives engine notifications. Calls are made synchronously after
// the state change they describe; implementations must not call back into
// the coordinator. OnWarning may also be called from the background writer.
type Listener interface {
	OnProgressChanged(id entities.ItemID, record entities.ProgressRecord)
	OnDeckRebuilt(deck []entities.ItemID)
	OnQuestionReady(q entities.Question)
	OnAnswerResult(result entities.AnswerResult)
	OnWarning(err error)
}

// NopListener ignores all notifications.
type NopListener struct{}

func (NopListener) OnProgressChanged(entities.ItemID, entities.ProgressRecord) {}
func (NopListener) OnDeckRebuilt([]entities.ItemID)                            {}
func (NopListener) OnQuestionReady(entities.Question)                          {}
func (NopListener) OnAnswerResult(entities.AnswerResult)                       {}
func (NopListener) OnWarning(error)                                            {}
