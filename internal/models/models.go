package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical ISO layout of normalized transaction dates
const DateLayout = "2006-01-02"

// CategoryID is a stable short identifier drawn from the category catalog
type CategoryID string

// FallbackCategory is returned when nothing else matches
const FallbackCategory CategoryID = "otros"

// String returns the string representation of CategoryID
func (c CategoryID) String() string {
	return string(c)
}

// BankID identifies a recognized statement issuer
type BankID string

const (
	BankSantander  BankID = "santander"
	BankChile      BankID = "bancochile"
	BankBCI        BankID = "bci"
	BankEstado     BankID = "bancoestado"
	BankFalabella  BankID = "falabella"
	BankRipley     BankID = "ripley"
	BankScotiabank BankID = "scotiabank"
	BankItau       BankID = "itau"
)

// String returns the string representation of BankID
func (b BankID) String() string {
	return string(b)
}

// RawTransactionLine is a transaction as it was found in the statement,
// before any normalization
type RawTransactionLine struct {
	RawDate        string `json:"raw_date"`
	RawDescription string `json:"raw_description"`
	RawAmount      string `json:"raw_amount"`
}

// NormalizedTransaction is the unit handed to storage and presentation
type NormalizedTransaction struct {
	Date        string          `json:"date" csv:"date"`
	Description string          `json:"description" csv:"description"`
	Merchant    string          `json:"merchant" csv:"merchant"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Category    CategoryID      `json:"category" csv:"category"`
}

// Validate performs basic validation on the NormalizedTransaction
func (t *NormalizedTransaction) Validate() error {
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return fmt.Errorf("invalid transaction date '%s': %w", t.Date, err)
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount cannot be negative: %s", t.Amount.String())
	}

	if strings.TrimSpace(string(t.Category)) == "" {
		return fmt.Errorf("transaction category cannot be empty")
	}

	return nil
}

// String returns a string representation of the NormalizedTransaction
func (t *NormalizedTransaction) String() string {
	return fmt.Sprintf("Transaction{Date: %s, Merchant: %s, Amount: %s, Category: %s}",
		t.Date, t.Merchant, t.Amount.String(), t.Category)
}

// Category is one spending bucket of the catalog with its display metadata
type Category struct {
	ID    CategoryID `json:"id" mapstructure:"id"`
	Name  string     `json:"name" mapstructure:"name"`
	Icon  string     `json:"icon,omitempty" mapstructure:"icon"`
	Color string     `json:"color,omitempty" mapstructure:"color"`
}

// Catalog is the ordered, authoritative list of categories
type Catalog []Category

// DefaultCatalog returns the built-in category catalog
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "alimentacion", Name: "Alimentación", Icon: "🛒", Color: "#4CAF50"},
		{ID: "transporte", Name: "Transporte", Icon: "🚗", Color: "#2196F3"},
		{ID: "salud", Name: "Salud", Icon: "💊", Color: "#F44336"},
		{ID: "entretenimiento", Name: "Entretenimiento", Icon: "🎬", Color: "#9C27B0"},
		{ID: "servicios", Name: "Servicios", Icon: "💡", Color: "#FF9800"},
		{ID: "hogar", Name: "Hogar", Icon: "🏠", Color: "#795548"},
		{ID: "educacion", Name: "Educación", Icon: "📚", Color: "#3F51B5"},
		{ID: "vestuario", Name: "Vestuario", Icon: "👕", Color: "#E91E63"},
		{ID: "tecnologia", Name: "Tecnología", Icon: "💻", Color: "#607D8B"},
		{ID: "viajes", Name: "Viajes", Icon: "✈️", Color: "#00BCD4"},
		{ID: FallbackCategory, Name: "Otros", Icon: "📦", Color: "#9E9E9E"},
	}
}

// Contains reports whether id is part of the catalog. The fallback
// category is always accepted.
func (c Catalog) Contains(id CategoryID) bool {
	if id == FallbackCategory {
		return true
	}
	for _, category := range c {
		if category.ID == id {
			return true
		}
	}
	return false
}

// Get returns the category with the given id
func (c Catalog) Get(id CategoryID) (Category, bool) {
	for _, category := range c {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}

// IDs returns the catalog identifiers in declaration order
func (c Catalog) IDs() []CategoryID {
	ids := make([]CategoryID, 0, len(c))
	for _, category := range c {
		ids = append(ids, category.ID)
	}
	return ids
}

// Validate checks that every category has a unique, non-empty id
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("category catalog cannot be empty")
	}

	seen := make(map[CategoryID]bool, len(c))
	for i, category := range c {
		if strings.TrimSpace(string(category.ID)) == "" {
			return fmt.Errorf("category %d has an empty id", i)
		}
		if seen[category.ID] {
			return fmt.Errorf("duplicate category id: %s", category.ID)
		}
		seen[category.ID] = true
	}

	return nil
}
