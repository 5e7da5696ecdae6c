package wire

import (
	"net/http"

	"guidehub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, auth func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.With(auth).Post("/create-intent", paymentHandler.CreateIntent)

		// Authenticated by the processor signature, not a session.
		r.Post("/webhook", paymentHandler.Webhook)
	})
}
