package service

import (
	"context"
	"errors"
	"fmt"

	"campus/config"
	"campus/infras/otel"
	"campus/internal/domains/equipment/model"
	"campus/internal/domains/equipment/model/dto"
	"campus/internal/domains/equipment/repository"
	userModel "campus/internal/domains/user/model"
	userRepo "campus/internal/domains/user/repository"
	"campus/shared"
	"campus/shared/cache"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/failure"
	gModel "campus/shared/model"
	"campus/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetEquipment    = "equipment:get"
	cacheGetAllEquipment = "equipment:gets"
	cacheCountEquipment  = "equipment:count"
)

type Equipment interface {
	Create(ctx context.Context, req dto.CreateEquipmentRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetEquipmentsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.EquipmentDetailResponse, error)
	Update(ctx context.Context, req dto.UpdateEquipmentRequest, id string) error
	Delete(ctx context.Context, id string) error
	BeginUse(ctx context.Context, id string) error
	EndUse(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo     repository.Equipment
	userRepo userRepo.User
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(repo repository.Equipment, userRepo userRepo.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Equipment {
	return &serviceImpl{
		repo:     repo,
		userRepo: userRepo,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
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

// getTenant loads the equipment and hides it when it belongs to another school.
func (s *serviceImpl) getTenant(ctx context.Context, id, school string) (model.Equipment, error) {
	equipment, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get equipment")

		return equipment, fmt.Errorf("failed to get equipment: %w", err)
	}

	if equipment.ID == constant.Empty || equipment.School != school {
		return equipment, failure.NotFound("equipment not found") // nolint:wrapcheck
	}

	return equipment, nil
}

func schoolFilter(school string) gDto.Filter {
	return gDto.Filter{
		Field:    model.FieldSchool,
		Operator: gDto.FilterOperatorEq,
		Value:    school,
		Table:    model.TableName,
	}
}

func (s *serviceImpl) invalidateEquipment(ctx context.Context, id string) {
	c := context.WithoutCancel(ctx)

	shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheGetEquipment, id))
	shared.InvalidateCaches(c, s.cache, cacheGetAllEquipment)
	shared.InvalidateCaches(c, s.cache, cacheCountEquipment)
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateEquipmentRequest) (err error) {
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

	equipment := req.ToModel(user.School, user.ID)

	if err = s.repo.Insert(ctx, equipment); err != nil {
		log.Error().Err(err).Msg("failed to create equipment")

		return fmt.Errorf("failed to create equipment: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllEquipment)
		shared.InvalidateCaches(c, s.cache, cacheCountEquipment)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetEquipmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	filter.Filters = append(filter.Filters, schoolFilter(user.School))

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllEquipment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for equipments")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count equipments")

		return res, fmt.Errorf("failed to count equipments: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get equipments")

		return res, fmt.Errorf("failed to get equipments: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save equipments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountEquipment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for equipment count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count equipments")

		return res, fmt.Errorf("failed to count equipments: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save equipment count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.EquipmentDetailResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return res, err
	}

	// The detail view is caller-dependent through the in_use_by_me stat.
	cacheKey := shared.BuildCacheKey(cacheGetEquipment, id, user.ID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for equipment")

		return res, nil
	}

	equipment, err := s.getTenant(ctx, id, user.School)
	if err != nil {
		return dto.EquipmentDetailResponse{}, err
	}

	records, err := s.repo.GetUsages(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get usage records")

		return res, fmt.Errorf("failed to get usage records: %w", err)
	}

	res.FromModel(equipment, records, user.ID)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save equipment to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateEquipmentRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateEquipmentRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

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

	updatedFields := shared.TransformFields(req, user.ID)
	if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update equipment")

		return fmt.Errorf("failed to update equipment: %w", err)
	}

	go s.invalidateEquipment(ctx, id)

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

	// Usage records on the equipment go with it via ON DELETE CASCADE.
	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete equipment")

		return fmt.Errorf("failed to delete equipment: %w", err)
	}

	go s.invalidateEquipment(ctx, id)

	return nil
}

func (s *serviceImpl) BeginUse(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".BeginUse")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	equipment, err := s.getTenant(ctx, id, user.School)
	if err != nil {
		return err
	}

	if !equipment.IsAvailable {
		return failure.Conflict("equipment is not available") // nolint:wrapcheck
	}

	now := timezone.Now()
	record := model.UsageRecord{
		ID:          uuid.NewString(),
		EquipmentID: id,
		UserID:      user.ID,
		StartedAt:   now,
		EndedAt:     nil,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user.ID,
			ModifiedBy: user.ID,
		},
	}

	if err = s.repo.BeginUse(ctx, record); err != nil {
		if errors.Is(err, repository.ErrAlreadyInUse) {
			return failure.Conflict("equipment is already in use") // nolint:wrapcheck
		}

		if errors.Is(err, repository.ErrEquipmentGone) {
			return failure.NotFound("equipment not found") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to begin equipment use")

		return fmt.Errorf("failed to begin equipment use: %w", err)
	}

	go s.invalidateEquipment(ctx, id)

	return nil
}

func (s *serviceImpl) EndUse(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".EndUse")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.caller(ctx)
	if err != nil {
		return err
	}

	if _, err = s.getTenant(ctx, id, user.School); err != nil {
		return err
	}

	if err = s.repo.EndUse(ctx, id, user.ID, timezone.Now()); err != nil {
		if errors.Is(err, repository.ErrNotInUse) {
			return failure.Conflict("equipment is not in use") // nolint:wrapcheck
		}

		if errors.Is(err, repository.ErrNoActiveUsage) {
			return failure.Conflict("no active usage record found") // nolint:wrapcheck
		}

		if errors.Is(err, repository.ErrEquipmentGone) {
			return failure.NotFound("equipment not found") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to end equipment use")

		return fmt.Errorf("failed to end equipment use: %w", err)
	}

	go s.invalidateEquipment(ctx, id)

	return nil
}
