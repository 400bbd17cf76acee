package service

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/repository"
)

// DefaultSearchHistorySize is how many recent searches are kept.
const DefaultSearchHistorySize = 10

// EngineConfig holds the tunable constants of a study session.
type EngineConfig struct {
	RequeueLookahead     int
	QuizLength           int
	PointsPerQuestion    int
	RecentExclusion      int
	QuizKind             entities.QuestionKind
	MarkMemorizedOnKnown bool
	SearchHistorySize    int
	PersistTimeout       time.Duration // bounds every storage call, loads included
}

// DefaultEngineConfig returns the default session settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RequeueLookahead:     DefaultRequeueLookahead,
		QuizLength:           DefaultQuizLength,
		PointsPerQuestion:    DefaultPointsPerQuestion,
		RecentExclusion:      DefaultRecentExclusion,
		QuizKind:             entities.KindMixed,
		MarkMemorizedOnKnown: true,
		SearchHistorySize:    DefaultSearchHistorySize,
		PersistTimeout:       DefaultPersistTimeout,
	}
}

// LoadReport describes the outcome of LoadProgress.
type LoadReport struct {
	Records int   // records restored, including those of unknown items
	Warning error // non-nil if the store was degraded to empty
}

// QuizStatus exposes the progress of the current quiz round.
type QuizStatus struct {
	Answered int
	Length   int
	Score    int
	MaxScore int
	Complete bool
}

// Coordinator runs one study session. It owns the session state, switches
// modes on explicit calls only and funnels every progress mutation through
// a single lock. All methods are safe for concurrent use.
type Coordinator struct {
	cfg       EngineConfig
	catalog   CatalogReader
	store     SnapshotStore
	scheduler *FlashcardScheduler
	quiz      *QuizGenerator
	persister *Persister
	listener  Listener
	logger    *zap.Logger
	rng       *rand.Rand
	id        string

	mu       sync.Mutex
	state    *entities.SessionState
	lifetime lifetimeTotals
	streak   entities.Streak
	history  []string
}

// lifetimeTotals count every answer of the learner across quiz rounds.
type lifetimeTotals struct {
	score    int
	answered int
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithListener sets the receiver of engine notifications.
func WithListener(l Listener) CoordinatorOption {
	return func(c *Coordinator) { c.listener = l }
}

// WithRand sets the random source used for quiz generation.
func WithRand(rng *rand.Rand) CoordinatorOption {
	return func(c *Coordinator) { c.rng = rng }
}

// NewCoordinator creates a session in Browse mode over catalog and store.
// Call LoadProgress before use and Close when done.
func NewCoordinator(
	catalog CatalogReader,
	store SnapshotStore,
	cfg EngineConfig,
	logger *zap.Logger,
	opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		catalog:  catalog,
		store:    store,
		listener: NopListener{},
		logger:   logger,
		state:    entities.NewSessionState(),
	}
	c.id = c.state.ID
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.cfg.SearchHistorySize <= 0 {
		c.cfg.SearchHistorySize = DefaultSearchHistorySize
	}
	if c.cfg.PersistTimeout <= 0 {
		c.cfg.PersistTimeout = DefaultPersistTimeout
	}

	c.logger = c.logger.With(zap.String("session_id", c.id))
	c.scheduler = NewFlashcardScheduler(catalog, store, cfg.RequeueLookahead, cfg.MarkMemorizedOnKnown)
	c.quiz = NewQuizGenerator(catalog, store, c.rng, QuizConfig{
		Kind:              cfg.QuizKind,
		Length:            cfg.QuizLength,
		PointsPerQuestion: cfg.PointsPerQuestion,
	})
	c.persister = NewPersister(store, c.cfg.PersistTimeout, c.logger, c.warn)

	return c
}

// LoadProgress restores stored progress and session counters and registers
// today's visit in the streak. It never fails: on storage errors the session
// continues memory only with empty progress and the report carries the
// warning. Nothing is written until Recover succeeds or the learner resets.
func (c *Coordinator) LoadProgress(ctx context.Context) LoadReport {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PersistTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	meta, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("progress store degraded to memory only",
			zap.String("key", c.store.Key()),
			zap.Error(err),
		)
		c.warn(err)
	}

	c.state.TotalScore = meta.TotalScore
	c.state.QuestionsAnswered = meta.QuestionsAnswered
	c.state.ActiveQuestion = nil
	c.lifetime = lifetimeTotals{score: meta.LifetimeScore, answered: meta.LifetimeAnswered}
	c.streak = meta.Streak.Touch(c.store.Now())
	c.history = meta.SearchHistory
	if len(c.history) > c.cfg.SearchHistorySize {
		c.history = c.history[:c.cfg.SearchHistorySize]
	}

	return LoadReport{Records: len(c.store.Snapshot()), Warning: err}
}

// MemoryOnly reports whether the session could not load its stored progress
// and keeps changes in memory only.
func (c *Coordinator) MemoryOnly() bool {
	return c.store.MemoryOnly()
}

// Recover loads the stored progress of a memory only session again. On
// success stored and in-memory progress are merged, the in-memory side
// winning per item and for a quiz round in progress, and the result is
// written back. It returns nil when the session is not memory only.
func (c *Coordinator) Recover(ctx context.Context) error {
	if !c.store.MemoryOnly() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.PersistTimeout)
	defer cancel()

	// The store merges records under its own lock, so learner actions are
	// not blocked by the storage call.
	meta, err := c.store.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mergeMeta(meta)
	c.logger.Info("stored progress recovered", zap.String("key", c.store.Key()))
	c.schedulePersist()
	return nil
}

// mergeMeta folds stored session values into the live ones. It must be
// called with c.mu held.
func (c *Coordinator) mergeMeta(stored repository.SessionMeta) {
	if c.state.QuestionsAnswered == 0 && c.state.ActiveQuestion == nil {
		c.state.TotalScore = stored.TotalScore
		c.state.QuestionsAnswered = stored.QuestionsAnswered
	}

	c.lifetime.score += stored.LifetimeScore
	c.lifetime.answered += stored.LifetimeAnswered

	if stored.Streak.LastVisit != "" {
		c.streak = stored.Streak.Touch(c.store.Now())
	}

	history := slices.Clone(stored.SearchHistory)
	for i := len(c.history) - 1; i >= 0; i-- {
		history = PushHistory(history, c.history[i], c.cfg.SearchHistorySize)
	}
	if len(history) > c.cfg.SearchHistorySize {
		history = history[:c.cfg.SearchHistorySize]
	}
	c.history = history
}

// Mode returns the current mode.
func (c *Coordinator) Mode() entities.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

// SessionID returns the identity of this session.
func (c *Coordinator) SessionID() string {
	return c.id
}

// Item returns a catalog item.
func (c *Coordinator) Item(id entities.ItemID) (entities.Item, error) {
	return c.catalog.Get(id)
}

// EnterBrowse switches to Browse mode and returns the whole catalog.
func (c *Coordinator) EnterBrowse() ([]entities.Item, error) {
	if c.catalog.Len() == 0 {
		return nil, entities.ErrCatalogEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Mode = entities.ModeBrowse
	return Query(c.catalog.All(), c.store.Snapshot(), "", entities.Filters{}), nil
}

// Search returns the items matching text and filters in catalog order.
func (c *Coordinator) Search(text string, filters entities.Filters) []entities.Item {
	return Query(c.catalog.All(), c.store.Snapshot(), text, filters)
}

// RecordSearch adds a submitted query to the search history.
func (c *Coordinator) RecordSearch(text string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := PushHistory(c.history, text, c.cfg.SearchHistorySize)
	if !slices.Equal(next, c.history) {
		c.history = next
		c.schedulePersist()
	}
	return slices.Clone(c.history)
}

// SearchHistory returns recent searches, newest first.
func (c *Coordinator) SearchHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// EnterFlashcard switches to Flashcard mode with a fresh deck built from
// filters.
func (c *Coordinator) EnterFlashcard(filters entities.Filters) ([]entities.ItemID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deck, err := c.scheduler.BuildDeck(filters)
	if err != nil {
		return nil, err
	}

	c.state.Mode = entities.ModeFlashcard
	c.state.DeckFilters = filters
	c.state.ActiveDeck = deck
	c.state.DeckCursor = 0

	c.listener.OnDeckRebuilt(slices.Clone(deck))
	return slices.Clone(deck), nil
}

// RebuildDeck starts a new pass with the current filters, ordered by the
// latest difficulty data.
func (c *Coordinator) RebuildDeck() ([]entities.ItemID, error) {
	c.mu.Lock()
	filters := c.state.DeckFilters
	mode := c.state.Mode
	c.mu.Unlock()

	if mode != entities.ModeFlashcard {
		return nil, entities.ErrWrongMode
	}
	return c.EnterFlashcard(filters)
}

// CurrentCard returns the card under the cursor.
func (c *Coordinator) CurrentCard() (entities.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeFlashcard {
		return entities.Item{}, entities.ErrWrongMode
	}
	return c.scheduler.Next(c.state)
}

// DeckPosition returns the cursor and the deck length.
func (c *Coordinator) DeckPosition() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.DeckCursor, len(c.state.ActiveDeck)
}

// AnswerCard records the self-assessment of the current card and advances.
func (c *Coordinator) AnswerCard(result entities.CardResult) (entities.ProgressRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeFlashcard {
		return entities.ProgressRecord{}, entities.ErrWrongMode
	}

	record, err := c.scheduler.Answer(c.state, result)
	if err != nil {
		return entities.ProgressRecord{}, err
	}

	c.listener.OnProgressChanged(record.ItemID, record)
	c.schedulePersist()
	return record, nil
}

// SortDeck reorders the unanswered cards.
func (c *Coordinator) SortDeck(criterion entities.SortCriterion) ([]entities.ItemID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeFlashcard {
		return nil, entities.ErrWrongMode
	}
	if err := c.scheduler.SortDeck(c.state, criterion); err != nil {
		return nil, err
	}

	deck := slices.Clone(c.state.ActiveDeck)
	c.listener.OnDeckRebuilt(deck)
	return deck, nil
}

// EnterQuiz switches to Quiz mode. An unfinished round is resumed, a
// finished one is replaced by a fresh round. The mode is unchanged if no
// question can be generated.
func (c *Coordinator) EnterQuiz() (entities.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == entities.ModeQuiz && c.state.ActiveQuestion != nil {
		return *c.state.ActiveQuestion, nil
	}

	if c.quiz.Complete(c.state) {
		return c.startRound()
	}

	q, err := c.nextQuestion()
	if err != nil {
		return entities.Question{}, err
	}
	c.state.Mode = entities.ModeQuiz
	return q, nil
}

// SetQuizKind changes the kind of the following questions. An empty kind
// restores the configured one.
func (c *Coordinator) SetQuizKind(kind entities.QuestionKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == "" {
		kind = c.cfg.QuizKind
	}
	c.quiz.SetKind(kind)
}

// ActiveQuestion returns the unanswered question of the quiz round, if any.
func (c *Coordinator) ActiveQuestion() (entities.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeQuiz || c.state.ActiveQuestion == nil {
		return entities.Question{}, false
	}
	return *c.state.ActiveQuestion, true
}

// RestartQuiz starts a fresh round in Quiz mode.
func (c *Coordinator) RestartQuiz() (entities.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startRound()
}

func (c *Coordinator) startRound() (entities.Question, error) {
	q, err := c.quiz.GenerateQuestion(c.state.RecentTargets)
	if err != nil {
		return entities.Question{}, err
	}

	c.state.ResetQuiz()
	c.state.Mode = entities.ModeQuiz
	c.activate(q)
	c.schedulePersist()
	return q, nil
}

// NextQuestion returns the active question, generating one if the previous
// was answered.
func (c *Coordinator) NextQuestion() (entities.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeQuiz {
		return entities.Question{}, entities.ErrWrongMode
	}
	return c.nextQuestion()
}

func (c *Coordinator) nextQuestion() (entities.Question, error) {
	if c.state.ActiveQuestion != nil {
		return *c.state.ActiveQuestion, nil
	}
	if c.quiz.Complete(c.state) {
		return entities.Question{}, entities.ErrQuizComplete
	}

	q, err := c.quiz.GenerateQuestion(c.state.RecentTargets)
	if err != nil {
		return entities.Question{}, err
	}
	c.activate(q)
	return q, nil
}

func (c *Coordinator) activate(q entities.Question) {
	c.state.ActiveQuestion = &q
	c.state.RememberTarget(q.TargetItemID, c.cfg.RecentExclusion)
	c.listener.OnQuestionReady(q)
}

// SubmitAnswer scores a typed answer for the active question.
func (c *Coordinator) SubmitAnswer(answer string) (entities.AnswerResult, error) {
	return c.submit(func(state *entities.SessionState) (entities.AnswerResult, entities.ProgressRecord, error) {
		return c.quiz.SubmitAnswer(state, answer)
	})
}

// SubmitChoice scores the multiple choice option at index.
func (c *Coordinator) SubmitChoice(index int) (entities.AnswerResult, error) {
	return c.submit(func(state *entities.SessionState) (entities.AnswerResult, entities.ProgressRecord, error) {
		return c.quiz.SubmitChoice(state, index)
	})
}

// SubmitChoiceAt scores the option at index only if the round still stands
// at answered questions. A choice made for an earlier question returns
// ErrStaleQuestion and changes nothing.
func (c *Coordinator) SubmitChoiceAt(answered, index int) (entities.AnswerResult, error) {
	return c.submit(func(state *entities.SessionState) (entities.AnswerResult, entities.ProgressRecord, error) {
		if state.ActiveQuestion == nil || state.QuestionsAnswered != answered {
			return entities.AnswerResult{}, entities.ProgressRecord{}, entities.ErrStaleQuestion
		}
		return c.quiz.SubmitChoice(state, index)
	})
}

func (c *Coordinator) submit(
	fn func(*entities.SessionState) (entities.AnswerResult, entities.ProgressRecord, error),
) (entities.AnswerResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != entities.ModeQuiz {
		return entities.AnswerResult{}, entities.ErrWrongMode
	}

	result, record, err := fn(c.state)
	if err != nil {
		return entities.AnswerResult{}, err
	}
	c.lifetime.score += result.Points
	c.lifetime.answered++

	c.listener.OnProgressChanged(record.ItemID, record)
	c.listener.OnAnswerResult(result)
	c.schedulePersist()
	return result, nil
}

// QuizStatus returns the progress of the current round.
func (c *Coordinator) QuizStatus() QuizStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return QuizStatus{
		Answered: c.state.QuestionsAnswered,
		Length:   c.quiz.Length(),
		Score:    c.state.TotalScore,
		MaxScore: c.quiz.Length() * c.quiz.PointsPerQuestion(),
		Complete: c.quiz.Complete(c.state),
	}
}

// Progress returns the progress record of id.
func (c *Coordinator) Progress(id entities.ItemID) entities.ProgressRecord {
	return c.store.Get(id)
}

// SetFavorite sets the favorite flag of a catalog item.
func (c *Coordinator) SetFavorite(id entities.ItemID, favorite bool) (entities.ProgressRecord, error) {
	return c.mutate(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsFavorite = favorite
		return p
	})
}

// ToggleFavorite flips the favorite flag of a catalog item.
func (c *Coordinator) ToggleFavorite(id entities.ItemID) (entities.ProgressRecord, error) {
	return c.mutate(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsFavorite = !p.IsFavorite
		return p
	})
}

// SetMemorized sets the memorized flag of a catalog item.
func (c *Coordinator) SetMemorized(id entities.ItemID, memorized bool) (entities.ProgressRecord, error) {
	return c.mutate(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsMemorized = memorized
		return p
	})
}

// ToggleMemorized flips the memorized flag of a catalog item.
func (c *Coordinator) ToggleMemorized(id entities.ItemID) (entities.ProgressRecord, error) {
	return c.mutate(id, func(p entities.ProgressRecord) entities.ProgressRecord {
		p.IsMemorized = !p.IsMemorized
		return p
	})
}

func (c *Coordinator) mutate(
	id entities.ItemID,
	fn func(entities.ProgressRecord) entities.ProgressRecord,
) (entities.ProgressRecord, error) {
	if _, err := c.catalog.Get(id); err != nil {
		return entities.ProgressRecord{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record := c.store.Update(id, fn)
	c.listener.OnProgressChanged(id, record)
	c.schedulePersist()
	return record, nil
}

// Stats summarizes progress over the catalog.
func (c *Coordinator) Stats() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := BuildSummary(c.catalog.All(), c.store.Snapshot())
	s.Score = c.lifetime.score
	s.QuestionsAnswered = c.lifetime.answered
	s.Streak = c.streak
	return s
}

// Mistakes returns the items answered wrong most often.
func (c *Coordinator) Mistakes(limit int) []Mistake {
	return TopMistakes(c.catalog.All(), c.store.Snapshot(), limit)
}

// Persist writes the session to storage and waits for the result.
func (c *Coordinator) Persist(ctx context.Context) error {
	c.mu.Lock()
	meta := c.meta()
	c.mu.Unlock()

	return c.persister.Flush(ctx, meta)
}

// Reset clears all progress, counters, streak and search history, returns
// to Browse mode and writes the empty state.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.store.Reset()
	c.state = entities.NewSessionState()
	c.state.ID = c.id
	c.lifetime = lifetimeTotals{}
	c.streak = entities.Streak{}
	c.history = nil
	meta := c.meta()
	c.mu.Unlock()

	c.logger.Info("progress reset")
	return c.persister.Flush(ctx, meta)
}

// Close writes pending changes and stops the background writer.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.schedulePersist()
	c.mu.Unlock()

	c.persister.Close()
}

// schedulePersist must be called with c.mu held.
func (c *Coordinator) schedulePersist() {
	c.persister.Request(c.meta())
}

// meta must be called with c.mu held.
func (c *Coordinator) meta() repository.SessionMeta {
	return repository.SessionMeta{
		TotalScore:        c.state.TotalScore,
		QuestionsAnswered: c.state.QuestionsAnswered,
		LifetimeScore:     c.lifetime.score,
		LifetimeAnswered:  c.lifetime.answered,
		Streak:            c.streak,
		SearchHistory:     slices.Clone(c.history),
	}
}

func (c *Coordinator) warn(err error) {
	// Memory only sessions were reported once when the load failed.
	if err == nil || errors.Is(err, ErrPersisterClosed) || errors.Is(err, repository.ErrMemoryOnly) {
		return
	}
	c.listener.OnWarning(err)
}
