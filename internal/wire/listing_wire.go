package wire

import (
	"net/http"

	"guidehub/internal/adaptor"
	"guidehub/internal/data/entity"
	"guidehub/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireListing(
	r chi.Router,
	listingHandler *adaptor.ListingHandler,
	reviewHandler *adaptor.ReviewHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/listings", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", listingHandler.GetListings)
		r.Get("/{id}", listingHandler.GetListing)
		r.Get("/{id}/reviews", reviewHandler.GetListingReviews)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.With(middleware.RequireRole(log, entity.RoleGuide, entity.RoleAdmin)).
				Post("/", listingHandler.CreateListing)

			// Ownership is checked by the service.
			r.Put("/{id}", listingHandler.UpdateListing)
			r.Delete("/{id}", listingHandler.DeleteListing)

			r.Post("/{id}/reviews", reviewHandler.CreateReview)
		})
	})
}
