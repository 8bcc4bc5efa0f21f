package categorizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"statement-categorizer/internal/models"
)

// Override is one learned merchant to category correction
type Override struct {
	Merchant string            `json:"merchant"`
	Category models.CategoryID `json:"category"`
}

// learnedTable keeps overrides in insertion order. Overwriting a merchant
// keeps its original position.
type learnedTable struct {
	order  []string
	values map[string]models.CategoryID
}

func newLearnedTable() *learnedTable {
	return &learnedTable{values: make(map[string]models.CategoryID)}
}

func (t *learnedTable) get(merchant string) (models.CategoryID, bool) {
	id, ok := t.values[merchant]
	return id, ok
}

func (t *learnedTable) set(merchant string, id models.CategoryID) {
	if _, exists := t.values[merchant]; !exists {
		t.order = append(t.order, merchant)
	}
	t.values[merchant] = id
}

func (t *learnedTable) len() int {
	return len(t.order)
}

func (t *learnedTable) entries() []Override {
	out := make([]Override, 0, len(t.order))
	for _, merchant := range t.order {
		out = append(out, Override{Merchant: merchant, Category: t.values[merchant]})
	}
	return out
}

// encode renders the table as a JSON object whose keys follow insertion
// order
func (t *learnedTable) encode() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, merchant := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(merchant)
		if err != nil {
			return "", err
		}
		value, err := json.Marshal(string(t.values[merchant]))
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// decodeLearnedTable parses a JSON object of merchant to category id
// strings. Key order is kept. When accept is non-nil every category must
// satisfy it.
func decodeLearnedTable(payload string, accept func(models.CategoryID) bool) (*learnedTable, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	table := newLearnedTable()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading merchant: %w", err)
		}
		merchant, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		valueTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading category of %q: %w", merchant, err)
		}
		value, ok := valueTok.(string)
		if !ok {
			return nil, fmt.Errorf("category of %q must be a string, got %v", merchant, valueTok)
		}

		id := models.CategoryID(value)
		if accept != nil && !accept(id) {
			return nil, &unknownCategoryError{merchant: merchant, category: id}
		}
		table.set(merchant, id)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading end of object: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after object")
	}

	return table, nil
}

type unknownCategoryError struct {
	merchant string
	category models.CategoryID
}

func (e *unknownCategoryError) Error() string {
	return fmt.Sprintf("merchant %q maps to unknown category %s", e.merchant, e.category)
}
