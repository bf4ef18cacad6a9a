/**
 * @description
 * This file defines the interface for the payment method data access layer.
 * The service depends on this contract only, so the PostgreSQL and in-memory
 * implementations are interchangeable.
 *
 * @notes
 * - GetByID, Update and Delete return domain.ErrNotFound when no record has the id.
 * - Update never creates a record; Put is for new records.
 * - Put replaces the whole record; the last completed Put wins.
 */
package store

import (
	"context"

	"github.com/transfa/payment-method-service/internal/domain"
)

// PaymentMethodRepository defines the contract for persisting payment methods.
type PaymentMethodRepository interface {
	Put(ctx context.Context, pm *domain.PaymentMethod) error
	Update(ctx context.Context, pm *domain.PaymentMethod) error
	GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PaymentMethod, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
