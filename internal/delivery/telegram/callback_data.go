package telegram

import (
	"strconv"
	"strings"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// Callback action constants.
const (
	actionPage     = "page"
	actionItem     = "item"
	actionFavorite = "fav"
	actionMemorize = "mem"
	actionCard     = "card"
	actionSort     = "sort"
	actionAnswer   = "answer"
	actionQuiz     = "quiz"
	actionProgress = "progress"
	actionReset    = "reset"
)

// Card sub-actions.
const (
	cardKnown   = "known"
	cardUnknown = "unknown"
	cardAgain   = "again"
)

// Quiz sub-actions.
const (
	quizStart   = "start"
	quizNext    = "next"
	quizRestart = "restart"
)

const (
	resetConfirm = "confirm"
	resetCancel  = "cancel"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// param returns the i-th parameter or "".
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// intParam parses the i-th parameter as an int.
func (cd callbackData) intParam(i int) (int, bool) {
	v, err := strconv.Atoi(cd.param(i))
	if err != nil {
		return 0, false
	}
	return v, true
}

// itemID returns the item id carried as the last parameters. Ids may
// contain the separator, so everything from i on is joined back.
func (cd callbackData) itemID(i int) entities.ItemID {
	if i >= len(cd.Params) {
		return ""
	}
	return entities.ItemID(strings.Join(cd.Params[i:], ":"))
}

func buildPageCallback(page int) string {
	return callbackData{Action: actionPage, Params: []string{strconv.Itoa(page)}}.encode()
}

func buildItemCallback(id entities.ItemID) string {
	return callbackData{Action: actionItem, Params: []string{string(id)}}.encode()
}

func buildFavoriteCallback(id entities.ItemID) string {
	return callbackData{Action: actionFavorite, Params: []string{string(id)}}.encode()
}

func buildMemorizeCallback(id entities.ItemID) string {
	return callbackData{Action: actionMemorize, Params: []string{string(id)}}.encode()
}

func buildCardCallback(sub string) string {
	return callbackData{Action: actionCard, Params: []string{sub}}.encode()
}

func buildSortCallback(criterion entities.SortCriterion) string {
	return callbackData{Action: actionSort, Params: []string{string(criterion)}}.encode()
}

// buildAnswerCallback carries the number of answered questions so presses on
// an old question can be told apart.
func buildAnswerCallback(answered, index int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{strconv.Itoa(answered), strconv.Itoa(index)},
	}.encode()
}

func buildQuizCallback(sub string) string {
	return callbackData{Action: actionQuiz, Params: []string{sub}}.encode()
}

func buildProgressCallback() string {
	return actionProgress
}

func buildResetConfirmCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetConfirm}}.encode()
}

func buildResetCancelCallback() string {
	return callbackData{Action: actionReset, Params: []string{resetCancel}}.encode()
}
