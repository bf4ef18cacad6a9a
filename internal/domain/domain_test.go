package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPaymentMethodPatchApplyTo(t *testing.T) {
	name := "Jane Doe"
	other := "someone-else"
	pm := PaymentMethod{UserID: "user-a", OwnerName: "John Doe", CardNumber: "1234567812345678"}

	PaymentMethodPatch{UserID: &other, OwnerName: &name}.ApplyTo(&pm)

	if pm.OwnerName != "Jane Doe" {
		t.Fatalf("expected owner name to change, got %q", pm.OwnerName)
	}
	if pm.UserID != "user-a" {
		t.Fatalf("user id must never be patched, got %q", pm.UserID)
	}
	if pm.CardNumber != "1234567812345678" {
		t.Fatalf("absent field changed: %q", pm.CardNumber)
	}
}

func TestPaymentMethodPatchIsEmpty(t *testing.T) {
	user := "user-a"
	if !(PaymentMethodPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	if !(PaymentMethodPatch{UserID: &user}).IsEmpty() {
		t.Fatal("user id alone should not count as an update")
	}
	code := "123"
	if (PaymentMethodPatch{SecurityCode: &code}).IsEmpty() {
		t.Fatal("patch with security code should not be empty")
	}
}

func TestCardLast4(t *testing.T) {
	if got := (PaymentMethod{CardNumber: "1234567812345678"}).CardLast4(); got != "5678" {
		t.Fatalf("got %q", got)
	}
	if got := (PaymentMethod{CardNumber: "12"}).CardLast4(); got != "12" {
		t.Fatalf("got %q", got)
	}
}

func TestErrorHelpers(t *testing.T) {
	verr := fmt.Errorf("create: %w", NewValidationError("card_number", "must be exactly 16 digits"))
	if !IsValidationError(verr) || IsStorageError(verr) {
		t.Fatalf("misclassified validation error: %v", verr)
	}
	if verr.Error() != "create: card_number must be exactly 16 digits" {
		t.Fatalf("unexpected message %q", verr.Error())
	}

	cause := errors.New("connection reset")
	serr := &StorageError{Op: "put", Err: cause}
	if !IsStorageError(serr) || !errors.Is(serr, cause) {
		t.Fatalf("storage error should wrap its cause")
	}
	if serr.Error() != "storage put: connection reset" {
		t.Fatalf("unexpected message %q", serr.Error())
	}

	if NewValidationError("", "no updatable fields supplied").Error() != "no updatable fields supplied" {
		t.Fatal("field-less validation error should print the reason only")
	}
}
