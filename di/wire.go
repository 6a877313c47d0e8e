//go:build wireinject
// +build wireinject

package di

import (
	"campus/config"
	"campus/infras/jwt"
	"campus/infras/otel"
	"campus/infras/postgres"
	"campus/infras/redis"
	"campus/permissions"
	"campus/shared/cache"
	"campus/transport/http"
	"campus/transport/http/middleware"
	"campus/transport/http/router"

	equipmentRepository "campus/internal/domains/equipment/repository"
	equipmentService "campus/internal/domains/equipment/service"
	facilityRepository "campus/internal/domains/facility/repository"
	facilityService "campus/internal/domains/facility/service"
	reservationRepository "campus/internal/domains/reservation/repository"
	reservationService "campus/internal/domains/reservation/service"
	userRepository "campus/internal/domains/user/repository"

	equipmentHandler "campus/internal/handlers/equipment"
	facilityHandler "campus/internal/handlers/facility"
	reservationHandler "campus/internal/handlers/reservation"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	permissions.Get,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
)

var facilityDomain = wire.NewSet(
	facilityRepository.New,
	facilityService.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	reservationService.New,
)

var equipmentDomain = wire.NewSet(
	equipmentRepository.New,
	equipmentService.New,
)

var domains = wire.NewSet(
	userDomain,
	facilityDomain,
	reservationDomain,
	equipmentDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	facilityHandler.New,
	reservationHandler.New,
	equipmentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
