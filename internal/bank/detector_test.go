package bank

import (
	"testing"

	"statement-categorizer/internal/models"
	apperrors "statement-categorizer/pkg/errors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   models.BankID
		wantOK bool
	}{
		{"santander header", "ESTADO DE CUENTA\nBANCO SANTANDER CHILE", models.BankSantander, true},
		{"banco de chile", "Banco de Chile - Cartola", models.BankChile, true},
		{"bci", "Cartola BCI cuenta corriente", models.BankBCI, true},
		{"cuentarut", "Movimientos CuentaRUT", models.BankEstado, true},
		{"cmr", "Estado de cuenta CMR Falabella", models.BankFalabella, true},
		{"itau accented", "BANCO ITAÚ", models.BankItau, true},
		{"first listed wins", "CMR FALABELLA pagado con BANCO SANTANDER", models.BankSantander, true},
		{"unrecognized", "Cooperativa de ahorro local", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Detect() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseBankID(t *testing.T) {
	id, err := ParseBankID(" Santander ")
	if err != nil || id != models.BankSantander {
		t.Errorf("ParseBankID(Santander) = %q, %v", id, err)
	}

	_, err = ParseBankID("banco-ficticio")
	if !apperrors.HasCode(err, apperrors.CodeUnknownBank) {
		t.Errorf("expected unknown bank error, got %v", err)
	}
}
