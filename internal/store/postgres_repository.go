/**
 * @description
 * This file implements the PostgreSQL data access layer for payment methods.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - golang.org/x/crypto (via FieldSealer): optional at-rest sealing of card fields.
 *
 * @notes
 * - Put is a single upsert statement used on create; user_id and created_at are
 *   never overwritten.
 * - Update only touches an existing row and reports ErrNotFound otherwise.
 * - Plain strings stored before a key was configured are still readable.
 */
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/payment-method-service/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// PostgresPaymentMethodRepository is the PostgreSQL implementation of PaymentMethodRepository.
type PostgresPaymentMethodRepository struct {
	db     *pgxpool.Pool
	sealer *FieldSealer
}

// NewPostgresPaymentMethodRepository creates a repository. sealer may be nil.
func NewPostgresPaymentMethodRepository(db *pgxpool.Pool, sealer *FieldSealer) *PostgresPaymentMethodRepository {
	return &PostgresPaymentMethodRepository{db: db, sealer: sealer}
}

// EnsureSchema creates the payment_methods table and its index if missing.
func (r *PostgresPaymentMethodRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Put inserts the payment method or replaces its mutable fields.
func (r *PostgresPaymentMethodRepository) Put(ctx context.Context, pm *domain.PaymentMethod) error {
	cardNumber, err := r.sealer.Seal(pm.CardNumber)
	if err != nil {
		return fmt.Errorf("failed to seal card number: %w", err)
	}
	securityCode, err := r.sealer.Seal(pm.SecurityCode)
	if err != nil {
		return fmt.Errorf("failed to seal security code: %w", err)
	}

	query := `
        INSERT INTO payment_methods (id, user_id, owner_name, card_number, expiration_date, security_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            owner_name = EXCLUDED.owner_name,
            card_number = EXCLUDED.card_number,
            expiration_date = EXCLUDED.expiration_date,
            security_code = EXCLUDED.security_code,
            updated_at = EXCLUDED.updated_at
    `
	_, err = r.db.Exec(ctx, query,
		pm.ID,
		pm.UserID,
		pm.OwnerName,
		cardNumber,
		pm.ExpirationDate,
		securityCode,
		pm.CreatedAt,
		pm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payment method: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing payment method. It never
// inserts, so a record deleted concurrently stays deleted.
func (r *PostgresPaymentMethodRepository) Update(ctx context.Context, pm *domain.PaymentMethod) error {
	cardNumber, err := r.sealer.Seal(pm.CardNumber)
	if err != nil {
		return fmt.Errorf("failed to seal card number: %w", err)
	}
	securityCode, err := r.sealer.Seal(pm.SecurityCode)
	if err != nil {
		return fmt.Errorf("failed to seal security code: %w", err)
	}

	query := `
        UPDATE payment_methods
        SET owner_name = $2, card_number = $3, expiration_date = $4, security_code = $5, updated_at = $6
        WHERE id = $1
    `
	result, err := r.db.Exec(ctx, query,
		pm.ID,
		pm.OwnerName,
		cardNumber,
		pm.ExpirationDate,
		securityCode,
		pm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a payment method regardless of owner.
func (r *PostgresPaymentMethodRepository) GetByID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	query := `
        SELECT id, user_id, owner_name, card_number, expiration_date, security_code, created_at, updated_at
        FROM payment_methods
        WHERE id = $1
    `
	var pm domain.PaymentMethod
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pm.ID, &pm.UserID, &pm.OwnerName, &pm.CardNumber, &pm.ExpirationDate, &pm.SecurityCode, &pm.CreatedAt, &pm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	if err := r.open(&pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

// ListByUser retrieves all payment methods owned by userID, oldest first.
func (r *PostgresPaymentMethodRepository) ListByUser(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	query := `
        SELECT id, user_id, owner_name, card_number, expiration_date, security_code, created_at, updated_at
        FROM payment_methods
        WHERE user_id = $1
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethod, 0)
	for rows.Next() {
		var pm domain.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.UserID, &pm.OwnerName, &pm.CardNumber, &pm.ExpirationDate, &pm.SecurityCode, &pm.CreatedAt, &pm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment method row: %w", err)
		}
		if err := r.open(&pm); err != nil {
			return nil, err
		}
		methods = append(methods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment methods: %w", err)
	}
	return methods, nil
}

// Delete removes a payment method.
func (r *PostgresPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresPaymentMethodRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresPaymentMethodRepository) open(pm *domain.PaymentMethod) error {
	var err error
	if pm.CardNumber, err = r.sealer.Open(pm.CardNumber); err != nil {
		return fmt.Errorf("failed to open card number: %w", err)
	}
	if pm.SecurityCode, err = r.sealer.Open(pm.SecurityCode); err != nil {
		return fmt.Errorf("failed to open security code: %w", err)
	}
	return nil
}
