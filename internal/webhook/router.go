package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter assembles the HTTP surface. The otelhttp wrapper creates the
// server-side span every downstream slog call and settlement log entry
// correlates with.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/webhooks/payments", handler.HandlePaymentEvent)
	r.Get("/orders/{id}", handler.GetOrderByID)
	r.Get("/healthz", handler.Healthz)

	return otelhttp.NewHandler(r, "webhookd")
}
