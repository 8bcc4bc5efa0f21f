// Package bank recognizes the issuer of a statement from its free text.
package bank

import (
	"fmt"
	"strings"

	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	apperrors "statement-categorizer/pkg/errors"
)

// Signature is the set of lower-case keywords that identify one bank
type Signature struct {
	Bank     models.BankID
	Keywords []string
}

// Signatures is the ordered detection table. When a statement mentions more
// than one bank, the first listed one wins.
var Signatures = []Signature{
	{Bank: models.BankSantander, Keywords: []string{"banco santander", "santander"}},
	{Bank: models.BankChile, Keywords: []string{"banco de chile", "bancochile", "banco edwards"}},
	{Bank: models.BankBCI, Keywords: []string{"banco de credito e inversiones", "bci"}},
	{Bank: models.BankEstado, Keywords: []string{"bancoestado", "banco estado", "cuentarut"}},
	{Bank: models.BankFalabella, Keywords: []string{"banco falabella", "cmr falabella"}},
	{Bank: models.BankRipley, Keywords: []string{"banco ripley", "tarjeta ripley"}},
	{Bank: models.BankScotiabank, Keywords: []string{"scotiabank"}},
	{Bank: models.BankItau, Keywords: []string{"itaú", "itau"}},
}

// Detect returns the first bank whose keywords appear in fullText. It
// reports false when the bank is unrecognized; callers should then use
// generic extraction rules.
func Detect(fullText string) (models.BankID, bool) {
	text := normalize.Lower(fullText)
	for _, signature := range Signatures {
		for _, keyword := range signature.Keywords {
			if strings.Contains(text, keyword) {
				return signature.Bank, true
			}
		}
	}
	return "", false
}

// IDs lists the recognized banks in detection order
func IDs() []models.BankID {
	ids := make([]models.BankID, 0, len(Signatures))
	for _, signature := range Signatures {
		ids = append(ids, signature.Bank)
	}
	return ids
}

// ParseBankID validates a bank identifier supplied by a user
func ParseBankID(s string) (models.BankID, error) {
	id := models.BankID(normalize.Key(s))
	for _, known := range IDs() {
		if id == known {
			return id, nil
		}
	}
	return "", apperrors.ValidationError(apperrors.CodeUnknownBank, "bank", s,
		fmt.Errorf("expected one of %v", IDs()))
}
