// Package entities contains domain entities used across the application.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemID is the stable identity of a catalog item. Catalogs may use numbers
// (the 99 Names) or slugs (vocabulary topics); both are kept as strings.
type ItemID string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Category groups catalog items. The 99 Names use the three classic groups,
// other catalogs are free to use their own values.
type Category string

const (
	CategoryMajesty    Category = "jalal" // names of majesty and power
	CategoryBeauty     Category = "jamal" // names of beauty and mercy
	CategoryPerfection Category = "kamal" // names of perfection and essence
)

// Item is one immutable learning item of a catalog: a word, a phrase or one
// of the 99 Names.
type Item struct {
	ID                 ItemID   `json:"id"`                            // unique identity
	PrimaryText        string   `json:"primary_text"`                  // target-language text
	Translation        string   `json:"translation"`                   // native-language text
	Category           Category `json:"category"`                      // grouping used by filters and distractors
	SequenceNumber     int      `json:"sequence_number"`               // catalog order, 1..N
	Meaning            string   `json:"meaning,omitempty"`             // optional longer explanation
	Example            string   `json:"example,omitempty"`             // example sentence in the target language
	ExampleTranslation string   `json:"example_translation,omitempty"` // example sentence in the native language
	Alternates         []string `json:"alternates,omitempty"`          // accepted alternate spellings of PrimaryText
}

// SequenceString returns the sequence number rendered for search matching.
func (i *Item) SequenceString() string {
	return strconv.Itoa(i.SequenceNumber)
}
