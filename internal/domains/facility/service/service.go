package service

import (
	"context"
	"fmt"

	"campus/config"
	"campus/infras/otel"
	"campus/internal/domains/facility/model"
	"campus/internal/domains/facility/model/dto"
	"campus/internal/domains/facility/repository"
	reservationModel "campus/internal/domains/reservation/model"
	reservationRepo "campus/internal/domains/reservation/repository"
	userModel "campus/internal/domains/user/model"
	userRepo "campus/internal/domains/user/repository"
	"campus/shared"
	"campus/shared/cache"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/failure"
	"campus/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetFacility    = "facility:get"
	cacheGetAllFacility = "facility:gets"
	cacheCountFacility  = "facility:count"
)

type Facility interface {
	Create(ctx context.Context, req dto.CreateFacilityRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetFacilitiesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.FacilityDetailResponse, error)
	Update(ctx context.Context, req dto.UpdateFacilityRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo            repository.Facility
	reservationRepo reservationRepo.Reservation
	userRepo        userRepo.User
	cfg             *config.Config
	cache           cache.RedisCache
	otel            otel.Otel
}

func New(repo repository.Facility, reservationRepo reservationRepo.Reservation, userRepo userRepo.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Facility {
	return &serviceImpl{
		repo:            repo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		cfg:             cfg,
		cache:           cache,
		otel:            otel,
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

// getTenant loads the facility and hides it when it belongs to another school.
func (s *serviceImpl) getTenant(ctx context.Context, id, school string) (model.Facility, error) {
	facility, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get facility")

		return facility, fmt.Errorf("failed to get facility: %w", err)
	}

	if facility.ID == constant.Empty || facility.School != school {
		return facility, failure.NotFound("facility not found") // nolint:wrapcheck
	}

	return facility, nil
}

func schoolFilter(school string) gDto.Filter {
	return gDto.Filter{
		Field:    model.FieldSchool,
		Operator: gDto.FilterOperatorEq,
		Value:    school,
		Table:    model.TableName,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateFacilityRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	if !user.IsAdmin {
		return failure.Forbidden("admin privilege required") // nolint:wrapcheck
	}

	if req.OpenTime >= req.CloseTime {
		return failure.BadRequestFromString("open time must be before close time") // nolint:wrapcheck
	}

	facility := req.ToModel(user.School, user.ID)

	if err = s.repo.Insert(ctx, facility); err != nil {
		log.Error().Err(err).Msg("failed to create facility")

		return fmt.Errorf("failed to create facility: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllFacility)
		shared.InvalidateCaches(c, s.cache, cacheCountFacility)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetFacilitiesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	filter.Filters = append(filter.Filters, schoolFilter(user.School))

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllFacility, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for facilities")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count facilities")

		return res, fmt.Errorf("failed to count facilities: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get facilities")

		return res, fmt.Errorf("failed to get facilities: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save facilities to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountFacility, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for facility count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count facilities")

		return res, fmt.Errorf("failed to count facilities: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save facility count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.FacilityDetailResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetFacility, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil && res.School == user.School {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for facility")

		return res, nil
	}

	facility, err := s.getTenant(ctx, id, user.School)
	if err != nil {
		return dto.FacilityDetailResponse{}, err
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    reservationModel.FieldFacilityID,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
				Table:    reservationModel.TableName,
			},
			gDto.Filter{
				Field:    reservationModel.FieldEndTime,
				Operator: gDto.FilterOperatorGreater,
				Value:    timezone.Now(),
				Table:    reservationModel.TableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  reservationModel.FieldStartTime,
		SortDir: constant.SortAscending,
	}

	reservations, err := s.reservationRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get facility reservations")

		return res, fmt.Errorf("failed to get facility reservations: %w", err)
	}

	res.FromModel(facility, reservations)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save facility to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateFacilityRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateFacilityRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	facility, err := s.getTenant(ctx, id, user.School)
	if err != nil {
		return err
	}

	if !user.IsAdmin {
		return failure.Forbidden("admin privilege required") // nolint:wrapcheck
	}

	openTime := facility.OpenTime
	if req.OpenTime != "" {
		openTime = req.OpenTime
	}

	closeTime := facility.CloseTime
	if req.CloseTime != "" {
		closeTime = req.CloseTime
	}

	if openTime >= closeTime {
		return failure.BadRequestFromString("open time must be before close time") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user.ID)
	if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update facility")

		return fmt.Errorf("failed to update facility: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetFacility, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete facility from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllFacility)
		shared.InvalidateCaches(c, s.cache, cacheCountFacility)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	if _, err = s.getTenant(ctx, id, user.School); err != nil {
		return err
	}

	if !user.IsAdmin {
		return failure.Forbidden("admin privilege required") // nolint:wrapcheck
	}

	// Reservations on the facility go with it via ON DELETE CASCADE.
	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete facility")

		return fmt.Errorf("failed to delete facility: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetFacility, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete facility from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllFacility)
		shared.InvalidateCaches(c, s.cache, cacheCountFacility)
	}()

	return nil
}
