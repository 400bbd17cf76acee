package service

import (
	"strings"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// Query returns the items matching text and filters in catalog order.
//
// Matching is a normalized substring match against the primary text, the
// translation, the meaning and the sequence number. Empty text matches every
// item. All set filters must hold. Query keeps no state between calls, so the
// result always reflects the given progress snapshot.
func Query(
	items []entities.Item,
	progress entities.ProgressSnapshot,
	text string,
	filters entities.Filters,
) []entities.Item {
	needle := Normalize(text)

	result := make([]entities.Item, 0, len(items))
	for i := range items {
		item := &items[i]
		if !matchesFilters(item, progress.Lookup(item.ID), filters) {
			continue
		}
		if needle != "" && !matchesText(item, needle) {
			continue
		}
		result = append(result, *item)
	}
	return result
}

func matchesFilters(item *entities.Item, p entities.ProgressRecord, f entities.Filters) bool {
	if f.FavoritesOnly && !p.IsFavorite {
		return false
	}
	if f.MemorizedOnly && !p.IsMemorized {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	return true
}

func matchesText(item *entities.Item, needle string) bool {
	for _, field := range []string{item.PrimaryText, item.Translation, item.Meaning} {
		if field != "" && strings.Contains(Normalize(field), needle) {
			return true
		}
	}
	return strings.Contains(item.SequenceString(), needle)
}

// PushHistory puts text at the front of history, drops an earlier entry equal
// to it ignoring case, and keeps at most limit entries. Blank text leaves
// history unchanged.
func PushHistory(history []string, text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return history
	}

	key := Normalize(text)
	out := make([]string, 0, min(len(history)+1, limit))
	out = append(out, text)
	for _, h := range history {
		if len(out) == limit {
			break
		}
		if Normalize(h) == key {
			continue
		}
		out = append(out, h)
	}
	return out
}
