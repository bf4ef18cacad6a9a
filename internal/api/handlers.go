/**
 * @description
 * This file defines the HTTP handlers for the payment-method-service's API
 * endpoints. Handlers parse requests, call the service and map its typed
 * errors onto status codes.
 *
 * @notes
 * - validation failure -> 422, not found -> 404, storage failure -> 500.
 * - An omitted field is left unchanged on update; an explicit null is a 422.
 * - A record owned by someone else is indistinguishable from a missing one.
 */
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/transfa/payment-method-service/internal/app"
	"github.com/transfa/payment-method-service/internal/domain"
	"github.com/transfa/payment-method-service/pkg/middleware"
)

const maxBodyBytes = 64 << 10

// PaymentMethodHandler holds the dependencies for payment method handlers.
type PaymentMethodHandler struct {
	service app.Service
	logger  logrus.FieldLogger
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(service app.Service, logger logrus.FieldLogger) *PaymentMethodHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentMethodHandler{service: service, logger: logger}
}

// PaymentMethodRequest is the JSON body for create and update. Absent fields
// decode to nil, which on update means "leave unchanged".
type PaymentMethodRequest struct {
	UserID         *string `json:"user_id"`
	OwnerName      *string `json:"owner_name"`
	CardNumber     *string `json:"card_number"`
	ExpirationDate *string `json:"expiration_date"`
	SecurityCode   *string `json:"security_code"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// CreatePaymentMethod handles POST /payment-methods.
func (h *PaymentMethodHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	pm, err := h.service.Create(r.Context(), app.CreatePaymentMethodInput{
		UserID:          userID,
		RequestedUserID: req.UserID,
		OwnerName:       deref(req.OwnerName),
		CardNumber:      deref(req.CardNumber),
		ExpirationDate:  deref(req.ExpirationDate),
		SecurityCode:    deref(req.SecurityCode),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pm)
}

// ListPaymentMethods handles GET /payment-methods.
func (h *PaymentMethodHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	methods, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, methods)
}

// GetPaymentMethod handles GET /payment-methods/{id}.
func (h *PaymentMethodHandler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	pm, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pm)
}

// UpdatePaymentMethod handles PATCH and PUT /payment-methods/{id}. Both only
// change the fields present in the body.
func (h *PaymentMethodHandler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	pm, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), domain.PaymentMethodPatch{
		UserID:         req.UserID,
		OwnerName:      req.OwnerName,
		CardNumber:     req.CardNumber,
		ExpirationDate: req.ExpirationDate,
		SecurityCode:   req.SecurityCode,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pm)
}

// DeletePaymentMethod handles DELETE /payment-methods/{id}.
func (h *PaymentMethodHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ready handles GET /ready.
func (h *PaymentMethodHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.WithError(err).Warn("readiness check failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *PaymentMethodHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, validationErr.Error(), validationErr.Field)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error(), "")
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("payment method request failed")
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

// mutableFields may be omitted from a request but never sent as JSON null.
var mutableFields = []string{"owner_name", "card_number", "expiration_date", "security_code"}

func decodeRequest(w http.ResponseWriter, r *http.Request) (PaymentMethodRequest, bool) {
	var req PaymentMethodRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return req, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return req, false
	}
	for _, field := range mutableFields {
		if v, ok := raw[field]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			writeError(w, http.StatusUnprocessableEntity, field+" must not be null", field)
			return req, false
		}
	}

	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return req, false
	}
	return req, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, field string) {
	writeJSON(w, status, errorResponse{Error: message, Field: field})
}
