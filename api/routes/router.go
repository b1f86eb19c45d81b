package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelezquez/shopcart-backend/api/controllers"
	cartcontrollers "github.com/avelezquez/shopcart-backend/api/controllers/cart"
	"github.com/avelezquez/shopcart-backend/api/middleware"
	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	"github.com/avelezquez/shopcart-backend/pkg/config"
	"github.com/avelezquez/shopcart-backend/pkg/db"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
	"github.com/avelezquez/shopcart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService cartsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(dbP, redisClient)))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartToken(cfg.Cart, logg))

		r.Get("/", cartcontrollers.CartFetch(cartService, logg))
		r.Patch("/", cartcontrollers.CartReconcile(cartService, logg))
		r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
		r.Delete("/items", cartcontrollers.CartDeleteItem(cartService, logg))
		r.Put("/items/amount", cartcontrollers.CartSetItemAmount(cartService, logg))
	})

	return r
}
