/**
 * @description
 * This file defines the core domain model for a PaymentMethod. A payment method
 * is a card-like record (owner name, card number, expiry, security code) saved
 * by a user for later use.
 *
 * @notes
 * - `UserID` is set once at creation time from the caller identity and is never
 *   changed afterwards.
 * - Card fields are stored as opaque strings; only their shape is validated.
 */
package domain

import "time"

// PaymentMethod represents a user's saved card.
type PaymentMethod struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OwnerName      string    `json:"owner_name"`
	CardNumber     string    `json:"card_number"`
	ExpirationDate string    `json:"expiration_date"`
	SecurityCode   string    `json:"security_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PaymentMethodPatch carries the fields of a partial update. A nil pointer
// means the field was not supplied and must be left untouched.
type PaymentMethodPatch struct {
	UserID         *string
	OwnerName      *string
	CardNumber     *string
	ExpirationDate *string
	SecurityCode   *string
}

// IsEmpty reports whether the patch touches none of the mutable fields.
func (p PaymentMethodPatch) IsEmpty() bool {
	return p.OwnerName == nil && p.CardNumber == nil && p.ExpirationDate == nil && p.SecurityCode == nil
}

// ApplyTo copies every supplied field onto pm. UserID is never applied.
func (p PaymentMethodPatch) ApplyTo(pm *PaymentMethod) {
	if p.OwnerName != nil {
		pm.OwnerName = *p.OwnerName
	}
	if p.CardNumber != nil {
		pm.CardNumber = *p.CardNumber
	}
	if p.ExpirationDate != nil {
		pm.ExpirationDate = *p.ExpirationDate
	}
	if p.SecurityCode != nil {
		pm.SecurityCode = *p.SecurityCode
	}
}

// CardLast4 returns the last four digits of the card number.
func (pm PaymentMethod) CardLast4() string {
	if len(pm.CardNumber) <= 4 {
		return pm.CardNumber
	}
	return pm.CardNumber[len(pm.CardNumber)-4:]
}
