package store

import (
	"context"
	"sync"

	"github.com/transfa/payment-method-service/internal/domain"
)

// MemoryPaymentMethodRepository keeps payment methods in process memory.
// It backs STORE_BACKEND=memory and the service tests.
type MemoryPaymentMethodRepository struct {
	mu    sync.RWMutex
	items map[string]domain.PaymentMethod
	order []string
}

func NewMemoryPaymentMethodRepository() *MemoryPaymentMethodRepository {
	return &MemoryPaymentMethodRepository{items: make(map[string]domain.PaymentMethod)}
}

func (r *MemoryPaymentMethodRepository) Put(ctx context.Context, pm *domain.PaymentMethod) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[pm.ID]; !exists {
		r.order = append(r.order, pm.ID)
	}
	r.items[pm.ID] = *pm
	return nil
}

func (r *MemoryPaymentMethodRepository) Update(ctx context.Context, pm *domain.PaymentMethod) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[pm.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := *pm
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	r.items[pm.ID] = updated
	return nil
}

func (r *MemoryPaymentMethodRepository) GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	pm, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &pm, nil
}

func (r *MemoryPaymentMethodRepository) ListByUser(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PaymentMethod, 0)
	for _, id := range r.order {
		if pm := r.items[id]; pm.UserID == userID {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (r *MemoryPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryPaymentMethodRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
