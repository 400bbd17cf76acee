package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// alternatesSeparator separates alternate spellings inside one table cell.
const alternatesSeparator = "|"

// nameRecord is the shape of the 99 Names dataset.
type nameRecord struct {
	Number          int               `json:"number"`          // number of the name (from 1 to 99)
	ArabicName      string            `json:"name"`            // Arabic name
	Transliteration string            `json:"transliteration"` // Latin transliteration
	Translation     string            `json:"translation"`     // translation of the name
	Meaning         string            `json:"meaning"`         // detailed meaning of the name
	Category        entities.Category `json:"category"`
	Example         string            `json:"example"`
	ExampleTrans    string            `json:"example_translation"`
}

// nameCategories assigns the classic groups to the 99 Names. Names missing
// from the table belong to CategoryPerfection.
var nameCategories = map[int]entities.Category{
	1: "jamal", 2: "jamal", 3: "jamal", 4: "jalal", 5: "jalal",
	6: "jalal", 7: "jamal", 8: "jalal", 9: "jalal", 10: "jalal",
	11: "jalal", 12: "kamal", 13: "kamal", 14: "jamal", 15: "jalal",
	16: "jalal", 17: "jamal", 18: "jamal", 19: "kamal", 20: "jalal",
	21: "jalal", 22: "jalal", 23: "jalal", 24: "jalal", 25: "jalal",
	26: "jalal", 27: "kamal", 28: "kamal", 29: "jalal", 30: "jamal",
	31: "kamal", 32: "jamal", 33: "jalal", 34: "jamal", 35: "jamal",
	40: "jalal", 41: "jalal", 47: "kamal", 48: "jamal",
}

// NameCategory returns the category of the name with the given number.
func NameCategory(number int) entities.Category {
	if c, ok := nameCategories[number]; ok {
		return c
	}
	return entities.CategoryPerfection
}

// LoadCatalogFile reads a catalog from a JSON, CSV or XLSX file.
func LoadCatalogFile(path string) (*Catalog, error) {
	var (
		items []entities.Item
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		items, err = DecodeCatalogJSON(data)
	case ".csv":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		items, err = DecodeCatalogCSV(f)
	case ".xlsx":
		items, err = readCatalogExcel(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	return NewCatalog(items)
}

// DecodeCatalogJSON accepts a plain array of items, an {"items": [...]}
// object, or the 99 Names dataset {"names": [...]}.
func DecodeCatalogJSON(data []byte) ([]entities.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var items []entities.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items JSON: %w", err)
		}
		return items, nil
	}

	var wrapper struct {
		Items []entities.Item `json:"items"`
		Names []nameRecord    `json:"names"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog JSON: %w", err)
	}

	items := wrapper.Items
	for _, n := range wrapper.Names {
		items = append(items, n.toItem())
	}
	return items, nil
}

func (n nameRecord) toItem() entities.Item {
	category := n.Category
	if category == "" {
		category = NameCategory(n.Number)
	}

	item := entities.Item{
		ID:                 entities.ItemID(strconv.Itoa(n.Number)),
		PrimaryText:        n.ArabicName,
		Translation:        n.Translation,
		Category:           category,
		SequenceNumber:     n.Number,
		Meaning:            n.Meaning,
		Example:            n.Example,
		ExampleTranslation: n.ExampleTrans,
	}
	if n.Transliteration != "" {
		item.Alternates = []string{n.Transliteration}
	}
	return item
}

// DecodeCatalogCSV reads items from CSV with a header row naming the columns
// id, primary_text, translation, category, sequence_number, meaning, example,
// example_translation and alternates. Only id and primary_text are required.
func DecodeCatalogCSV(r io.Reader) ([]entities.Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return itemsFromRows(rows)
}

func readCatalogExcel(path string) ([]entities.Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return itemsFromRows(rows)
}

// itemsFromRows maps table rows to items using the header in the first row.
func itemsFromRows(rows [][]string) ([]entities.Item, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "primary_text"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidItem, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]entities.Item, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if cell(row, "id") == "" && cell(row, "primary_text") == "" {
			continue // blank line
		}

		item := entities.Item{
			ID:                 entities.ItemID(cell(row, "id")),
			PrimaryText:        cell(row, "primary_text"),
			Translation:        cell(row, "translation"),
			Category:           entities.Category(cell(row, "category")),
			Meaning:            cell(row, "meaning"),
			Example:            cell(row, "example"),
			ExampleTranslation: cell(row, "example_translation"),
		}

		if seq := cell(row, "sequence_number"); seq != "" {
			v, err := strconv.Atoi(seq)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: sequence_number %q", ErrInvalidItem, n+2, seq)
			}
			item.SequenceNumber = v
		}

		if alt := cell(row, "alternates"); alt != "" {
			for _, a := range strings.Split(alt, alternatesSeparator) {
				if a = strings.TrimSpace(a); a != "" {
					item.Alternates = append(item.Alternates, a)
				}
			}
		}

		items = append(items, item)
	}

	return items, nil
}
