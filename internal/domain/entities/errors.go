package entities

import "errors"

var (
	// ErrCatalogEmpty blocks every study mode: nothing can be shown without items.
	ErrCatalogEmpty = errors.New("catalog is empty")
	// ErrInsufficientCatalog means the catalog is too small for the requested
	// question kind. The user can switch to another mode.
	ErrInsufficientCatalog = errors.New("catalog has too few items for this question kind")
	// ErrStorageUnavailable marks load or persist failures. The session keeps
	// working in memory.
	ErrStorageUnavailable = errors.New("progress storage unavailable")
	// ErrCorruptSnapshot is reported when stored progress cannot be decoded.
	ErrCorruptSnapshot = errors.New("stored progress is corrupt")
	// ErrInvalidAnswerFormat is used internally; such answers are judged incorrect.
	ErrInvalidAnswerFormat = errors.New("invalid answer format")

	ErrItemNotFound     = errors.New("item not found")
	ErrEndOfDeck        = errors.New("end of deck")
	ErrNoActiveDeck     = errors.New("no active flashcard deck")
	ErrNoActiveQuestion = errors.New("no active question")
	ErrQuizComplete     = errors.New("quiz round is complete")
	ErrStaleQuestion    = errors.New("question was already answered")
	ErrWrongMode        = errors.New("operation not available in current mode")
)
