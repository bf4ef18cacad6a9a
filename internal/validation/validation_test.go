package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/transfa/payment-method-service/internal/domain"
)

func TestOwnerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple name", input: "John Doe"},
		{name: "single character", input: "J"},
		{name: "exactly 100 characters", input: strings.Repeat("a", 100)},
		{name: "100 multibyte characters", input: strings.Repeat("é", 100)},
		{name: "empty", input: "", wantErr: true},
		{name: "101 characters", input: strings.Repeat("a", 101), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := OwnerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OwnerName(%q) err=%v, wantErr=%t", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCardNumber(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "1234567812345678"},
		{input: "0000000000000000"},
		{input: "12345", wantErr: true},
		{input: "12345678123456789", wantErr: true},
		{input: "1234 5678 1234 56", wantErr: true},
		{input: "123456781234567a", wantErr: true},
		{input: "１２３４５６７８１２３４５６７８", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := CardNumber(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CardNumber(%q) err=%v, wantErr=%t", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSecurityCode(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "123"},
		{input: "000"},
		{input: "12", wantErr: true},
		{input: "1234", wantErr: true},
		{input: "12a", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := SecurityCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SecurityCode(%q) err=%v, wantErr=%t", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestExpirationDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "12/2025"},
		{input: "01/2030"},
		{input: "01/1999"},
		{input: "00/2025", wantErr: true},
		{input: "13/2025", wantErr: true},
		{input: "12/25", wantErr: true},
		{input: "1/2025", wantErr: true},
		{input: "12-2025", wantErr: true},
		{input: "ab/2025", wantErr: true},
		{input: "12/20a5", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ExpirationDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpirationDate(%q) err=%v, wantErr=%t", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCreateReportsOffendingField(t *testing.T) {
	valid := CreateInput{
		OwnerName:      "John Doe",
		CardNumber:     "1234567812345678",
		ExpirationDate: "12/2025",
		SecurityCode:   "123",
	}
	if err := Create(valid); err != nil {
		t.Fatalf("expected valid input to pass, got %v", err)
	}

	bad := valid
	bad.CardNumber = "12345"
	err := Create(bad)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T (%v)", err, err)
	}
	if verr.Field != FieldCardNumber {
		t.Fatalf("expected field %q, got %q", FieldCardNumber, verr.Field)
	}
}

func TestPatch(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		patch     domain.PaymentMethodPatch
		wantField string
		wantErr   bool
	}{
		{name: "owner name only", patch: domain.PaymentMethodPatch{OwnerName: str("Jane Doe")}},
		{name: "all fields", patch: domain.PaymentMethodPatch{
			OwnerName: str("Jane"), CardNumber: str("8765432187654321"),
			ExpirationDate: str("11/2030"), SecurityCode: str("321"),
		}},
		{name: "matching user id is accepted", patch: domain.PaymentMethodPatch{UserID: str("user-1"), CardNumber: str("8765432187654321")}},
		{name: "empty patch", patch: domain.PaymentMethodPatch{}, wantErr: true},
		{name: "user id only", patch: domain.PaymentMethodPatch{UserID: str("user-1")}, wantErr: true},
		{name: "foreign user id", patch: domain.PaymentMethodPatch{UserID: str("user-2"), OwnerName: str("Eve")}, wantErr: true, wantField: FieldUserID},
		{name: "empty owner name", patch: domain.PaymentMethodPatch{OwnerName: str("")}, wantErr: true, wantField: FieldOwnerName},
		{name: "one bad field among good ones", patch: domain.PaymentMethodPatch{
			OwnerName: str("Jane"), SecurityCode: str("12"),
		}, wantErr: true, wantField: FieldSecurityCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Patch(tt.patch, "user-1")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *domain.ValidationError, got %v", err)
			}
			if tt.wantField != "" && verr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, verr.Field)
			}
		})
	}
}
