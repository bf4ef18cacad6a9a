/**
 * @description
 * This file contains the core business logic for the payment-method-service,
 * implemented as a `PaymentMethodService`. It validates input, enforces
 * ownership and delegates persistence to the repository.
 *
 * @notes
 * - A record owned by another user is reported exactly like a missing one
 *   (domain.ErrNotFound), so callers cannot discover foreign ids.
 * - Update writes with repo.Update, which never re-creates a record deleted
 *   between the lookup and the write.
 * - Any repository failure other than ErrNotFound is wrapped in a
 *   *domain.StorageError and returned unchanged in meaning.
 * - Lifecycle events are best effort. A publish failure is logged and the
 *   mutation still succeeds.
 */
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/transfa/payment-method-service/internal/domain"
	"github.com/transfa/payment-method-service/internal/store"
	"github.com/transfa/payment-method-service/internal/validation"
)

// Service is the set of operations exposed to the HTTP adapter.
type Service interface {
	Create(ctx context.Context, input CreatePaymentMethodInput) (*domain.PaymentMethod, error)
	List(ctx context.Context, userID string) ([]domain.PaymentMethod, error)
	Get(ctx context.Context, userID, id string) (*domain.PaymentMethod, error)
	Update(ctx context.Context, userID, id string, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error)
	Delete(ctx context.Context, userID, id string) error
	Ready(ctx context.Context) error
}

// EventPublisher is satisfied by rabbitmq.EventProducer.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// CreatePaymentMethodInput defines the input for creating a payment method.
// UserID is the authenticated caller; RequestedUserID is whatever the client
// put in the body, if anything.
type CreatePaymentMethodInput struct {
	UserID          string
	RequestedUserID *string
	OwnerName       string
	CardNumber      string
	ExpirationDate  string
	SecurityCode    string
}

// PaymentMethodService implements Service on top of a PaymentMethodRepository.
type PaymentMethodService struct {
	repo      store.PaymentMethodRepository
	publisher EventPublisher
	exchange  string
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewPaymentMethodService creates a new PaymentMethodService. publisher may be
// nil, which disables lifecycle events.
func NewPaymentMethodService(repo store.PaymentMethodRepository, publisher EventPublisher, exchange string, logger logrus.FieldLogger) *PaymentMethodService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentMethodService{
		repo:      repo,
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the input and stores a new payment method owned by the caller.
func (s *PaymentMethodService) Create(ctx context.Context, input CreatePaymentMethodInput) (*domain.PaymentMethod, error) {
	if input.RequestedUserID != nil && *input.RequestedUserID != input.UserID {
		return nil, domain.NewValidationError(validation.FieldUserID, "must match the authenticated user")
	}
	if err := validation.Create(validation.CreateInput{
		OwnerName:      input.OwnerName,
		CardNumber:     input.CardNumber,
		ExpirationDate: input.ExpirationDate,
		SecurityCode:   input.SecurityCode,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	pm := &domain.PaymentMethod{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		OwnerName:      input.OwnerName,
		CardNumber:     input.CardNumber,
		ExpirationDate: input.ExpirationDate,
		SecurityCode:   input.SecurityCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, pm); err != nil {
		return nil, &domain.StorageError{Op: "put", Err: err}
	}

	s.logger.WithFields(logrus.Fields{"user_id": pm.UserID, "payment_method_id": pm.ID}).Info("payment method created")
	s.publish(ctx, domain.EventPaymentMethodCreated, pm)
	return pm, nil
}

// List returns every payment method owned by userID. The result is never nil.
func (s *PaymentMethodService) List(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	methods, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	return methods, nil
}

// Get returns the payment method with the given id if userID owns it.
func (s *PaymentMethodService) Get(ctx context.Context, userID, id string) (*domain.PaymentMethod, error) {
	return s.findOwned(ctx, userID, id)
}

// Update applies the supplied fields of patch to a payment method owned by userID.
// Ownership is checked before the patch is validated.
func (s *PaymentMethodService) Update(ctx context.Context, userID, id string, patch domain.PaymentMethodPatch) (*domain.PaymentMethod, error) {
	pm, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Patch(patch, pm.UserID); err != nil {
		return nil, err
	}

	patch.ApplyTo(pm)
	pm.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, pm); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "update", Err: err}
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "payment_method_id": id}).Info("payment method updated")
	s.publish(ctx, domain.EventPaymentMethodUpdated, pm)
	return pm, nil
}

// Delete removes a payment method owned by userID.
func (s *PaymentMethodService) Delete(ctx context.Context, userID, id string) error {
	pm, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return &domain.StorageError{Op: "delete", Err: err}
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "payment_method_id": id}).Info("payment method deleted")
	s.publish(ctx, domain.EventPaymentMethodDeleted, pm)
	return nil
}

// Ready reports whether the backing store is reachable.
func (s *PaymentMethodService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *PaymentMethodService) findOwned(ctx context.Context, userID, id string) (*domain.PaymentMethod, error) {
	pm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "get", Err: err}
	}
	if pm.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return pm, nil
}

func (s *PaymentMethodService) publish(ctx context.Context, eventType string, pm *domain.PaymentMethod) {
	if s.publisher == nil {
		return
	}
	event := domain.PaymentMethodEvent{
		EventID:         uuid.NewString(),
		Type:            eventType,
		PaymentMethodID: pm.ID,
		UserID:          pm.UserID,
		CardLast4:       pm.CardLast4(),
		OccurredAt:      s.now(),
	}
	if err := s.publisher.Publish(ctx, s.exchange, eventType, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":        eventType,
			"payment_method_id": pm.ID,
		}).Warn("failed to publish payment method event")
	}
}
