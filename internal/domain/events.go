/**
 * @description
 * This file defines the events published by the payment-method-service whenever
 * a payment method changes. They are the contract for consumers on the message
 * broker (RabbitMQ).
 *
 * @notes
 * - Events never carry the card number or the security code.
 */
package domain

import "time"

const (
	EventPaymentMethodCreated = "payment_method.created"
	EventPaymentMethodUpdated = "payment_method.updated"
	EventPaymentMethodDeleted = "payment_method.deleted"
)

// PaymentMethodEvent is the payload published after a successful mutation.
type PaymentMethodEvent struct {
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	PaymentMethodID string    `json:"payment_method_id"`
	UserID          string    `json:"user_id"`
	CardLast4       string    `json:"card_last4,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
