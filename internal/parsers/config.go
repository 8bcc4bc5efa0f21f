package parsers

import (
	"fmt"
)

// Standard row fields every statement source must provide
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
)

// standardFields is the order fields claim columns in
var standardFields = []string{FieldDate, FieldDescription, FieldAmount}

// RowConfig describes how to read tabular statement rows
type RowConfig struct {
	// Delimiter of CSV sources. Zero sniffs ';' or ',' from the first line.
	Delimiter rune `json:"delimiter" mapstructure:"delimiter"`

	// Fixed column positions, used when no header row is recognized
	DateColumn        int `json:"date_column" mapstructure:"date_column"`
	DescriptionColumn int `json:"description_column" mapstructure:"description_column"`
	AmountColumn      int `json:"amount_column" mapstructure:"amount_column"`

	// ColumnAliases lists the header names accepted for each standard field
	ColumnAliases map[string][]string `json:"column_aliases,omitempty" mapstructure:"column_aliases"`

	ValidateEncoding bool `json:"validate_encoding" mapstructure:"validate_encoding"`
}

// DefaultColumnAliases returns the header names found in Chilean bank exports
func DefaultColumnAliases() map[string][]string {
	return map[string][]string{
		FieldDate: {
			"fecha", "fecha operacion", "fecha operación", "fecha transaccion",
			"fecha transacción", "fecha compra", "date",
		},
		FieldDescription: {
			"descripcion", "descripción", "detalle", "glosa", "comercio",
			"descripcion operacion", "description",
		},
		FieldAmount: {
			"monto", "cargo", "cargos", "importe", "valor", "monto $", "amount",
		},
	}
}

// DefaultRowConfig returns a configuration with date, description and amount
// in the first three columns
func DefaultRowConfig() *RowConfig {
	return &RowConfig{
		DateColumn:        0,
		DescriptionColumn: 1,
		AmountColumn:      2,
		ColumnAliases:     DefaultColumnAliases(),
		ValidateEncoding:  true,
	}
}

// Validate checks if the row configuration is valid
func (c *RowConfig) Validate() error {
	positions := map[string]int{
		FieldDate:        c.DateColumn,
		FieldDescription: c.DescriptionColumn,
		FieldAmount:      c.AmountColumn,
	}

	seen := make(map[int]string, len(positions))
	for _, field := range standardFields {
		index := positions[field]
		if index < 0 {
			return fmt.Errorf("%s column cannot be negative, got %d", field, index)
		}
		if other, exists := seen[index]; exists {
			return fmt.Errorf("%s and %s columns both use position %d", other, field, index)
		}
		seen[index] = field
	}

	switch c.Delimiter {
	case 0, ',', ';', '\t', '|':
	default:
		return fmt.Errorf("unsupported delimiter %q", c.Delimiter)
	}

	return nil
}
