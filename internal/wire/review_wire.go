package wire

import (
	"net/http"

	"guidehub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// Listing-scoped review routes live in wireListing.
func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, auth func(http.Handler) http.Handler) {
	r.With(auth).Delete("/api/reviews/{id}", reviewHandler.DeleteReview)
}
