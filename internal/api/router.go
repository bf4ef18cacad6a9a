/**
 * @description
 * This file sets up the HTTP router for the payment-method-service using the
 * go-chi/chi router. It applies the ambient middleware stack and maps the
 * payment method routes to their handlers.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterOptions carries the middleware the router wires around the handlers.
// Auth is required; RateLimit may be nil.
type RouterOptions struct {
	Auth           func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

// NewRouter creates a new Chi router and registers the payment-method-service routes.
func NewRouter(h *PaymentMethodHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-User-Id"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Payment method service is healthy"))
	})
	r.Get("/ready", h.Ready)

	r.Group(func(r chi.Router) {
		r.Use(opts.Auth)
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}

		r.Route("/payment-methods", func(r chi.Router) {
			r.Post("/", h.CreatePaymentMethod)
			r.Get("/", h.ListPaymentMethods)
			r.Get("/{id}", h.GetPaymentMethod)
			r.Patch("/{id}", h.UpdatePaymentMethod)
			r.Put("/{id}", h.UpdatePaymentMethod)
			r.Delete("/{id}", h.DeletePaymentMethod)
		})
	})

	return r
}
