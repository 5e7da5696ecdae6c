package wire

import (
	"net/http"

	"guidehub/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, auth func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.With(auth).Put("/me", userHandler.UpdateProfile)
		r.Get("/{id}", userHandler.GetPublicProfile)
	})
}
