package service

import (
	"context"
	"errors"
	"fmt"

	"campus/config"
	"campus/infras/otel"
	facilityModel "campus/internal/domains/facility/model"
	facilityRepo "campus/internal/domains/facility/repository"
	"campus/internal/domains/reservation/model"
	"campus/internal/domains/reservation/model/dto"
	"campus/internal/domains/reservation/repository"
	userModel "campus/internal/domains/user/model"
	userRepo "campus/internal/domains/user/repository"
	"campus/shared"
	"campus/shared/cache"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheMyReservations = "reservation:my"
	cacheGetFacility    = "facility:get"
)

type Reservation interface {
	Reserve(ctx context.Context, req dto.ReserveFacilityRequest, facilityID string) (dto.ReservationResponse, error)
	Delete(ctx context.Context, id string) error
	GetMine(ctx context.Context) (dto.GetReservationsResponse, error)
}

type serviceImpl struct {
	repo         repository.Reservation
	facilityRepo facilityRepo.Facility
	userRepo     userRepo.User
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(repo repository.Reservation, facilityRepo facilityRepo.Facility, userRepo userRepo.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Reservation {
	return &serviceImpl{
		repo:         repo,
		facilityRepo: facilityRepo,
		userRepo:     userRepo,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func (s *serviceImpl) caller(ctx context.Context) (userModel.User, error) {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	user, err := s.userRepo.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return user, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return user, failure.NotFound("user not found") // nolint:wrapcheck
	}

	return user, nil
}

func (s *serviceImpl) Reserve(ctx context.Context, req dto.ReserveFacilityRequest, facilityID string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reserve")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	facility, err := s.facilityRepo.Get(ctx, shared.FilterByID(facilityID, facilityModel.FieldID, facilityModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get facility")

		return res, fmt.Errorf("failed to get facility: %w", err)
	}

	// A facility in another school is invisible to the caller.
	if facility.ID == constant.Empty || facility.School != user.School {
		return res, failure.NotFound("facility not found") // nolint:wrapcheck
	}

	if !facility.IsAvailable {
		return res, failure.Conflict("facility is not available") // nolint:wrapcheck
	}

	reservation, err := req.ToModel(facilityID, user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse reservation request")

		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) // nolint:wrapcheck
	}

	if !reservation.StartTime.Before(reservation.EndTime) {
		return res, failure.BadRequestFromString("start time must be before end time") // nolint:wrapcheck
	}

	if err = s.repo.Reserve(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return res, failure.Conflict("facility is already reserved for the requested time") // nolint:wrapcheck
		}

		if errors.Is(err, repository.ErrFacilityGone) {
			return res, failure.NotFound("facility not found") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to reserve facility")

		return res, fmt.Errorf("failed to reserve facility: %w", err)
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetFacility, facilityID)); err != nil {
			log.Error().Err(err).Msg("failed to delete facility from cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheMyReservations, user.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservations from cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if reservation.UserID != user.ID {
		return failure.Forbidden("only the reservation creator can delete it") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete reservation")

		return fmt.Errorf("failed to delete reservation: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetFacility, reservation.FacilityID)); err != nil {
			log.Error().Err(err).Msg("failed to delete facility from cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheMyReservations, user.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservations from cache")
		}
	}()

	return nil
}

func (s *serviceImpl) GetMine(ctx context.Context) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheMyReservations, user.ID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Operator: gDto.FilterOperatorEq,
				Value:    user.ID,
				Table:    model.TableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.FieldStartTime,
		SortDir: constant.SortAscending,
	}

	reservations, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(reservations)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}
