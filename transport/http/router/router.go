package router

import (
	"campus/config"
	"campus/internal/handlers/equipment"
	"campus/internal/handlers/facility"
	"campus/internal/handlers/reservation"
	"campus/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type DomainHandlers struct {
	Facility    facility.Handler
	Reservation reservation.Handler
	Equipment   equipment.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	App            middleware.App
	AuthRole       middleware.AuthRole
	Config         *config.Config
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Use(r.App.Tracing)
	router.Use(r.App.RateLimit())

	if r.Config.App.CORS.Enable {
		router.Use(cors.Handler(cors.Options{
			AllowCredentials: r.Config.App.CORS.AllowCredentials,
			AllowedHeaders:   r.Config.App.CORS.AllowedHeaders,
			AllowedMethods:   r.Config.App.CORS.AllowedMethods,
			AllowedOrigins:   r.Config.App.CORS.AllowedOrigins,
			MaxAge:           r.Config.App.CORS.MaxAgeSeconds,
		}))
	}

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey)
		routerGroup.Use(r.AuthRole.Auth)
		routerGroup.Use(r.AuthRole.RBAC)

		r.DomainHandlers.Facility.Router(routerGroup)
		r.DomainHandlers.Reservation.Router(routerGroup)
		r.DomainHandlers.Equipment.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, app middleware.App, authRole middleware.AuthRole, cfg *config.Config) Router {
	return Router{
		DomainHandlers: domainHandlers,
		App:            app,
		AuthRole:       authRole,
		Config:         cfg,
	}
}
