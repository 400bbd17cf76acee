package service

import (
	"fmt"
	"math/rand"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

const (
	DefaultQuizLength        = 10
	DefaultPointsPerQuestion = 50
)

// QuizConfig configures question generation and scoring.
type QuizConfig struct {
	Kind              entities.QuestionKind
	Length            int // questions per round
	PointsPerQuestion int
}

// QuizGenerator builds quiz questions and scores answers.
type QuizGenerator struct {
	catalog  CatalogReader
	progress ProgressRepository

	selector  *QuestionSelector
	options   *OptionGenerator
	validator *AnswerValidator
	rng       *rand.Rand

	cfg QuizConfig
}

// NewQuizGenerator creates a new QuizGenerator. All random choices come from
// rng, so a seeded source gives reproducible quizzes.
func NewQuizGenerator(
	catalog CatalogReader,
	progress ProgressRepository,
	rng *rand.Rand,
	cfg QuizConfig,
) *QuizGenerator {
	if cfg.Kind == "" {
		cfg.Kind = entities.KindMixed
	}
	if cfg.Length <= 0 {
		cfg.Length = DefaultQuizLength
	}
	if cfg.PointsPerQuestion < 0 {
		cfg.PointsPerQuestion = DefaultPointsPerQuestion
	}

	return &QuizGenerator{
		catalog:   catalog,
		progress:  progress,
		selector:  NewQuestionSelector(rng),
		options:   NewOptionGenerator(rng),
		validator: NewAnswerValidator(),
		rng:       rng,
		cfg:       cfg,
	}
}

// Length returns the number of questions in a round.
func (g *QuizGenerator) Length() int {
	return g.cfg.Length
}

// SetKind changes the kind of the following questions.
func (g *QuizGenerator) SetKind(kind entities.QuestionKind) {
	g.cfg.Kind = kind
}

// PointsPerQuestion returns the score of a correct answer.
func (g *QuizGenerator) PointsPerQuestion() int {
	return g.cfg.PointsPerQuestion
}

// GenerateQuestion builds the next question of the configured kind, never
// targeting an item in excludeRecent while other items are available.
func (g *QuizGenerator) GenerateQuestion(excludeRecent []entities.ItemID) (entities.Question, error) {
	return g.generate(g.cfg.Kind, excludeRecent)
}

func (g *QuizGenerator) generate(kind entities.QuestionKind, exclude []entities.ItemID) (entities.Question, error) {
	if g.catalog.Len() == 0 {
		return entities.Question{}, entities.ErrCatalogEmpty
	}

	switch kind {
	case entities.KindMultipleChoice:
		return g.multipleChoice(exclude)
	case entities.KindFillBlank:
		return g.fillBlank(exclude)
	case entities.KindMixed:
		if g.rng.Intn(2) == 0 {
			q, err := g.fillBlank(exclude)
			if err == nil {
				return q, nil
			}
		}
		return g.multipleChoice(exclude)
	default:
		return entities.Question{}, fmt.Errorf("unknown question kind %q", kind)
	}
}

func (g *QuizGenerator) multipleChoice(exclude []entities.ItemID) (entities.Question, error) {
	all := g.catalog.All()

	translated := make([]entities.Item, 0, len(all))
	for _, item := range all {
		if item.Translation != "" {
			translated = append(translated, item)
		}
	}
	if len(translated) < OptionsPerQuestion {
		return entities.Question{}, entities.ErrInsufficientCatalog
	}

	target, _ := g.selector.Select(translated, g.progress.Snapshot(), exclude)

	options, correctIndex, err := g.options.GenerateOptions(target, all)
	if err != nil {
		return entities.Question{}, err
	}

	return entities.Question{
		TargetItemID:  target.ID,
		Kind:          entities.KindMultipleChoice,
		PromptText:    target.PrimaryText,
		Options:       options,
		CorrectIndex:  correctIndex,
		CorrectAnswer: target.Translation,
	}, nil
}

// maskedItem is an item whose example sentence can be masked.
type maskedItem struct {
	prompt  string
	matched string
}

func (g *QuizGenerator) fillBlank(exclude []entities.ItemID) (entities.Question, error) {
	all := g.catalog.All()

	eligible := make([]entities.Item, 0, len(all))
	masked := make(map[entities.ItemID]maskedItem, len(all))
	for _, item := range all {
		forms := append([]string{item.PrimaryText}, item.Alternates...)
		prompt, matched, ok := MaskExample(item.Example, forms)
		if !ok {
			continue
		}
		eligible = append(eligible, item)
		masked[item.ID] = maskedItem{prompt: prompt, matched: matched}
	}

	target, ok := g.selector.Select(eligible, g.progress.Snapshot(), exclude)
	if !ok {
		return entities.Question{}, entities.ErrInsufficientCatalog
	}

	m := masked[target.ID]
	accepted := append([]string(nil), target.Alternates...)
	if m.matched != target.PrimaryText {
		accepted = append(accepted, m.matched)
	}

	return entities.Question{
		TargetItemID:  target.ID,
		Kind:          entities.KindFillBlank,
		PromptText:    m.prompt,
		CorrectIndex:  -1,
		CorrectAnswer: target.PrimaryText,
		Accepted:      accepted,
	}, nil
}

// Judge reports whether answer is correct for q. Multiple choice compares
// the option text exactly; fill blank compares normalized text against the
// correct answer and the accepted spellings. Malformed answers are wrong.
func (g *QuizGenerator) Judge(q entities.Question, answer string) bool {
	switch q.Kind {
	case entities.KindMultipleChoice:
		return answer == q.CorrectAnswer
	case entities.KindFillBlank:
		accepted := append([]string{q.CorrectAnswer}, q.Accepted...)
		ok, err := g.validator.Validate(answer, accepted...)
		if err != nil {
			return false
		}
		return ok
	default:
		return false
	}
}

// SubmitAnswer scores answer against the active question of state, records
// it in the progress store and clears the question.
func (g *QuizGenerator) SubmitAnswer(
	state *entities.SessionState,
	answer string,
) (entities.AnswerResult, entities.ProgressRecord, error) {
	if state.QuestionsAnswered >= g.cfg.Length {
		return entities.AnswerResult{}, entities.ProgressRecord{}, entities.ErrQuizComplete
	}
	if state.ActiveQuestion == nil {
		return entities.AnswerResult{}, entities.ProgressRecord{}, entities.ErrNoActiveQuestion
	}

	q := *state.ActiveQuestion
	correct := g.Judge(q, answer)
	record := g.progress.RecordAnswer(q.TargetItemID, correct)

	result := entities.AnswerResult{
		ItemID:        q.TargetItemID,
		Prompt:        q.PromptText,
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
	}
	if correct {
		result.Points = g.cfg.PointsPerQuestion
	}

	state.TotalScore += result.Points
	state.QuestionsAnswered++
	state.ActiveQuestion = nil

	return result, record, nil
}

// SubmitChoice answers a multiple choice question by option index. An index
// out of range counts as a wrong answer.
func (g *QuizGenerator) SubmitChoice(
	state *entities.SessionState,
	index int,
) (entities.AnswerResult, entities.ProgressRecord, error) {
	var answer string
	if q := state.ActiveQuestion; q != nil && index >= 0 && index < len(q.Options) {
		answer = q.Options[index]
	}
	return g.SubmitAnswer(state, answer)
}

// Complete reports whether the round of state is finished.
func (g *QuizGenerator) Complete(state *entities.SessionState) bool {
	return state.QuestionsAnswered >= g.cfg.Length
}
