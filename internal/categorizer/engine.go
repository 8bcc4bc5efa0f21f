// Package categorizer assigns spending categories to transactions.
//
// Categorize applies an ordered policy: a learned override for the exact
// merchant string wins outright, otherwise the first category of the
// pattern library with a keyword found in the description or merchant,
// otherwise the fallback category. Learned overrides are kept by an Engine
// and persisted through a KVStore under LearnedOverridesKey.
package categorizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

// LearnedOverridesKey is the reserved store key of the learned table
const LearnedOverridesKey = "categorizer.learned_overrides"

// TopCategories is the number of entries reported by Stats
const TopCategories = 5

// Suggestion is a ranked category guess
type Suggestion struct {
	Category   models.CategoryID `json:"category"`
	Confidence float64           `json:"confidence"`
}

// CategoryCount is the number of learned merchants mapped to a category
type CategoryCount struct {
	Category models.CategoryID `json:"category"`
	Count    int               `json:"count"`
}

// Stats summarizes the learned overrides
type Stats struct {
	TotalLearned int             `json:"total_learned"`
	Top          []CategoryCount `json:"top"`
}

// Engine categorizes transactions and owns the learned overrides. It is
// safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	learned  *learnedTable
	patterns PatternLibrary
	catalog  models.Catalog
	store    KVStore
	logger   logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithPatterns replaces the default pattern library
func WithPatterns(patterns PatternLibrary) Option {
	return func(e *Engine) {
		e.patterns = patterns
	}
}

// WithCatalog replaces the default category catalog
func WithCatalog(catalog models.Catalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithLogger sets the engine logger
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// NewEngine creates an engine and loads the learned table from store. A nil
// store keeps overrides in memory only.
func NewEngine(store KVStore, opts ...Option) (*Engine, error) {
	if store == nil {
		store = NewMemoryStore()
	}

	e := &Engine{
		learned:  newLearnedTable(),
		patterns: DefaultPatterns(),
		catalog:  models.DefaultCatalog(),
		store:    store,
		logger:   logger.WithComponent("categorizer"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.catalog.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "categories", len(e.catalog), err)
	}
	if err := e.patterns.Validate(e.catalog); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "patterns", len(e.patterns), err)
	}
	e.patterns = e.patterns.normalized()

	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// load reads the persisted table. Stored categories are trusted so that a
// shrunk catalog does not discard earlier corrections.
func (e *Engine) load() error {
	payload, found, err := e.store.Get(LearnedOverridesKey)
	if err != nil {
		return errors.StorageError(errors.CodeStoreUnavailable, LearnedOverridesKey, err)
	}
	if !found || strings.TrimSpace(payload) == "" {
		return nil
	}

	table, err := decodeLearnedTable(payload, nil)
	if err != nil {
		return errors.ParseError(errors.CodeInvalidPayload, LearnedOverridesKey, 0, err).
			WithSuggestion("run 'categorizer overrides reset' or import a backup to repair the stored table")
	}

	e.learned = table
	e.logger.WithField("entries", table.len()).Debug("Loaded learned overrides")
	return nil
}

// Categorize returns the category of a transaction. It never fails.
func (e *Engine) Categorize(description, merchant string) models.CategoryID {
	e.mu.RLock()
	id, ok := e.learned.get(merchant)
	e.mu.RUnlock()
	if ok {
		return id
	}

	text := normalize.Lower(description + " " + merchant)
	for _, entry := range e.patterns {
		for _, keyword := range entry.Keywords {
			if strings.Contains(text, keyword) {
				return entry.ID
			}
		}
	}
	return models.FallbackCategory
}

// CategorizeBatch returns a copy of transactions with each category set by
// Categorize, in the same order
func (e *Engine) CategorizeBatch(transactions []models.NormalizedTransaction) []models.NormalizedTransaction {
	out := make([]models.NormalizedTransaction, len(transactions))
	for i, tx := range transactions {
		tx.Category = e.Categorize(tx.Description, tx.Merchant)
		out[i] = tx
	}
	return out
}

// Learn records that merchant belongs to category id. The in-memory table
// is updated first; a failed write to the store is logged and does not
// undo it.
func (e *Engine) Learn(merchant string, id models.CategoryID) error {
	if strings.TrimSpace(merchant) == "" {
		return errors.ValidationError(errors.CodeMissingField, "merchant", merchant, nil)
	}
	if !e.catalog.Contains(id) {
		return errors.ValidationError(errors.CodeUnknownCategory, "category", id,
			fmt.Errorf("expected one of %v", e.catalog.IDs()))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.learned.set(merchant, id)
	e.logger.WithFields(logger.Fields{"merchant": merchant, "category": id}).Debug("Learned override")
	e.persistLocked("learn")
	return nil
}

// Suggest ranks the categories whose keywords appear in text. Confidence is
// the share of a category's keywords found, as a percentage. Categories
// without matches are left out; ties keep declaration order.
func (e *Engine) Suggest(text string, limit int) []Suggestion {
	if limit <= 0 {
		return []Suggestion{}
	}

	lowered := normalize.Lower(text)
	suggestions := make([]Suggestion, 0)
	for _, entry := range e.patterns {
		matched := 0
		for _, keyword := range entry.Keywords {
			if strings.Contains(lowered, keyword) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		confidence := float64(matched) / float64(len(entry.Keywords)) * 100
		if confidence > 100 {
			confidence = 100
		}
		suggestions = append(suggestions, Suggestion{Category: entry.ID, Confidence: confidence})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Stats returns the number of learned overrides and the most common
// categories among them. Equal counts keep the order in which the
// categories were first learned.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	entries := e.learned.entries()
	e.mu.RUnlock()

	index := make(map[models.CategoryID]int)
	counts := make([]CategoryCount, 0)
	for _, entry := range entries {
		i, ok := index[entry.Category]
		if !ok {
			i = len(counts)
			index[entry.Category] = i
			counts = append(counts, CategoryCount{Category: entry.Category})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > TopCategories {
		counts = counts[:TopCategories]
	}

	return Stats{TotalLearned: len(entries), Top: counts}
}

// Learned returns a snapshot of the overrides in insertion order
func (e *Engine) Learned() []Override {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.learned.entries()
}

// Export serializes the overrides as a JSON object
func (e *Engine) Export() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	payload, err := e.learned.encode()
	if err != nil {
		return "", errors.InternalError(errors.CodeUnexpectedError, "export", err)
	}
	return payload, nil
}

// Import replaces every override with the ones in payload. Nothing changes
// unless the whole payload parses and every category is in the catalog.
func (e *Engine) Import(payload string) error {
	table, err := decodeLearnedTable(payload, e.catalog.Contains)
	if err != nil {
		if unknown, ok := err.(*unknownCategoryError); ok {
			return errors.ValidationError(errors.CodeUnknownCategory, "category", unknown.category, unknown)
		}
		return errors.ParseError(errors.CodeInvalidPayload, "import", 0, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.learned = table
	e.logger.WithField("entries", table.len()).Info("Imported learned overrides")
	e.persistLocked("import")
	return nil
}

// Reset clears every override. Unlike Learn, a reset that cannot be
// written to the store is reported, since the old table would otherwise
// return on the next load.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.learned = newLearnedTable()
	if err := e.store.Set(LearnedOverridesKey, "{}"); err != nil {
		return errors.StorageError(errors.CodeStoreWrite, LearnedOverridesKey, err)
	}
	e.logger.Info("Reset learned overrides")
	return nil
}

// Catalog returns the category catalog in use
func (e *Engine) Catalog() models.Catalog {
	return e.catalog
}

// Patterns returns the normalized pattern library in use
func (e *Engine) Patterns() PatternLibrary {
	return e.patterns
}

// persistLocked writes the table to the store. Failures are logged only.
// Callers hold e.mu.
func (e *Engine) persistLocked(operation string) {
	log := e.logger.WithFields(logger.Fields{"operation": operation, "key": LearnedOverridesKey})

	payload, err := e.learned.encode()
	if err != nil {
		log.WithError(err).Warn("Failed to encode learned overrides")
		return
	}
	if err := e.store.Set(LearnedOverridesKey, payload); err != nil {
		log.WithError(err).Warn("Failed to persist learned overrides")
	}
}
