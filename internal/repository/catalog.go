package repository

import (
	"errors"
	"fmt"
	"sort"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

var (
	ErrDuplicateItem = errors.New("duplicate item id")
	ErrInvalidItem   = errors.New("invalid item")
)

// Catalog is the immutable, ordered set of learning items. It is built once
// and only read afterwards, so it is safe for concurrent use.
type Catalog struct {
	items []entities.Item
	index map[entities.ItemID]int
}

// NewCatalog validates items and orders them by sequence number. Items without
// a sequence number get their position in the input. An empty catalog is
// valid; study modes report entities.ErrCatalogEmpty for it.
func NewCatalog(items []entities.Item) (*Catalog, error) {
	ordered := make([]entities.Item, len(items))
	copy(ordered, items)

	for i := range ordered {
		if ordered[i].ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrInvalidItem, i+1)
		}
		if ordered[i].PrimaryText == "" && ordered[i].Translation == "" {
			return nil, fmt.Errorf("%w: item %q has no text", ErrInvalidItem, ordered[i].ID)
		}
		if ordered[i].SequenceNumber <= 0 {
			ordered[i].SequenceNumber = i + 1
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceNumber < ordered[j].SequenceNumber
	})

	index := make(map[entities.ItemID]int, len(ordered))
	for i, item := range ordered {
		if _, ok := index[item.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, item.ID)
		}
		index[item.ID] = i
	}

	return &Catalog{items: ordered, index: index}, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// All returns the items in catalog order. The returned slice is a copy.
func (c *Catalog) All() []entities.Item {
	out := make([]entities.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get retrieves an item by its id.
func (c *Catalog) Get(id entities.ItemID) (entities.Item, error) {
	i, ok := c.index[id]
	if !ok {
		return entities.Item{}, fmt.Errorf("get %q: %w", id, entities.ErrItemNotFound)
	}
	return c.items[i], nil
}

// Has reports whether id belongs to the catalog.
func (c *Catalog) Has(id entities.ItemID) bool {
	_, ok := c.index[id]
	return ok
}

// Position returns the catalog position of id, used as a stable tie-break.
func (c *Catalog) Position(id entities.ItemID) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return len(c.items)
}

// GetByIDs retrieves multiple items, skipping ids unknown to the catalog.
func (c *Catalog) GetByIDs(ids []entities.ItemID) []entities.Item {
	result := make([]entities.Item, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.index[id]; ok {
			result = append(result, c.items[i])
		}
	}
	return result
}

// CategoryCounts returns the number of items per category.
func (c *Catalog) CategoryCounts() map[entities.Category]int {
	counts := make(map[entities.Category]int)
	for _, item := range c.items {
		counts[item.Category]++
	}
	return counts
}
