package wire

import (
	"net/http"

	"guidehub/internal/adaptor"
	"guidehub/internal/data/repository"
	"guidehub/internal/gateway"
	"guidehub/internal/usecase"
	"guidehub/pkg/middleware"
	"guidehub/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds the services and the router on top of them.
func Wiring(repo *repository.Repository, config *utils.Config, gw gateway.Gateway, tokens *utils.TokenManager, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, gw, tokens, logger)
	handler := adaptor.NewHandler(service, config, logger)

	router := setupRouter(handler, service, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	auth := middleware.AuthSession(service.Auth, config.JWT.CookieName, logger)

	wireAuth(r, handler.Auth, auth)
	wireUser(r, handler.User, auth)
	wireListing(r, handler.Listing, handler.Review, auth, logger)
	wireReview(r, handler.Review, auth)
	wireBooking(r, handler.Booking, auth)
	wirePayment(r, handler.Payment, auth)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
