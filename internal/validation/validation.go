// Package validation checks payment method fields before they reach storage.
// Every function is pure and returns nil or a *domain.ValidationError.
package validation

import (
	"unicode/utf8"

	"github.com/transfa/payment-method-service/internal/domain"
)

const (
	MaxOwnerNameLength = 100
	CardNumberLength   = 16
	SecurityCodeLength = 3

	FieldUserID         = "user_id"
	FieldOwnerName      = "owner_name"
	FieldCardNumber     = "card_number"
	FieldExpirationDate = "expiration_date"
	FieldSecurityCode   = "security_code"
)

// CreateInput is the set of fields required to create a payment method.
type CreateInput struct {
	OwnerName      string
	CardNumber     string
	ExpirationDate string
	SecurityCode   string
}

// OwnerName fails when s is empty or longer than 100 characters.
func OwnerName(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return domain.NewValidationError(FieldOwnerName, "is required")
	}
	if n > MaxOwnerNameLength {
		return domain.NewValidationError(FieldOwnerName, "must be at most 100 characters")
	}
	return nil
}

// CardNumber fails unless s is exactly 16 ASCII digits.
func CardNumber(s string) error {
	if len(s) != CardNumberLength || !isDigits(s) {
		return domain.NewValidationError(FieldCardNumber, "must be exactly 16 digits")
	}
	return nil
}

// SecurityCode fails unless s is exactly 3 ASCII digits.
func SecurityCode(s string) error {
	if len(s) != SecurityCodeLength || !isDigits(s) {
		return domain.NewValidationError(FieldSecurityCode, "must be exactly 3 digits")
	}
	return nil
}

// ExpirationDate fails unless s is MM/YYYY with a month in 01..12.
// Dates in the past are accepted.
func ExpirationDate(s string) error {
	if len(s) != 7 || s[2] != '/' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return domain.NewValidationError(FieldExpirationDate, "must match MM/YYYY")
	}
	mm := int(s[0]-'0')*10 + int(s[1]-'0')
	if mm < 1 || mm > 12 {
		return domain.NewValidationError(FieldExpirationDate, "month must be 01..12")
	}
	return nil
}

// Create validates every field of a creation request and returns the first failure.
func Create(in CreateInput) error {
	if err := OwnerName(in.OwnerName); err != nil {
		return err
	}
	if err := CardNumber(in.CardNumber); err != nil {
		return err
	}
	if err := ExpirationDate(in.ExpirationDate); err != nil {
		return err
	}
	return SecurityCode(in.SecurityCode)
}

// Patch validates only the fields present in p. ownerID is the current owner
// of the record; a supplied user_id must match it.
func Patch(p domain.PaymentMethodPatch, ownerID string) error {
	if p.UserID != nil && *p.UserID != ownerID {
		return domain.NewValidationError(FieldUserID, "is immutable")
	}
	if p.IsEmpty() {
		return domain.NewValidationError("", "no updatable fields supplied")
	}
	if p.OwnerName != nil {
		if err := OwnerName(*p.OwnerName); err != nil {
			return err
		}
	}
	if p.CardNumber != nil {
		if err := CardNumber(*p.CardNumber); err != nil {
			return err
		}
	}
	if p.ExpirationDate != nil {
		if err := ExpirationDate(*p.ExpirationDate); err != nil {
			return err
		}
	}
	if p.SecurityCode != nil {
		if err := SecurityCode(*p.SecurityCode); err != nil {
			return err
		}
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
