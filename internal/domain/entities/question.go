package entities

// QuestionKind is the kind of quiz question.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice" // pick the translation among options
	KindFillBlank      QuestionKind = "fill_blank"      // type the masked word of an example
	KindMixed          QuestionKind = "mixed"           // random kind per question (quiz setting only)
)

// Question is an ephemeral quiz question. It is never persisted.
type Question struct {
	TargetItemID  ItemID
	Kind          QuestionKind
	PromptText    string
	Options       []string // multiple choice only
	CorrectIndex  int      // index of CorrectAnswer in Options, -1 for fill blank
	CorrectAnswer string
	Accepted      []string // fill blank only: alternate spellings that are also correct
}

// AnswerResult is the outcome of a submitted answer.
type AnswerResult struct {
	ItemID        ItemID
	Prompt        string // prompt of the answered question
	Correct       bool
	CorrectAnswer string
	Points        int
}
