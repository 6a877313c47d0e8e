package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"campus/config"
	"campus/infras/otel/mocks"
	equipmentMocks "campus/internal/domains/equipment/mocks"
	"campus/internal/domains/equipment/model"
	"campus/internal/domains/equipment/model/dto"
	"campus/internal/domains/equipment/repository"
	"campus/internal/domains/equipment/service"
	userMocks "campus/internal/domains/user/mocks"
	userModel "campus/internal/domains/user/model"
	cacheMocks "campus/shared/cache/mocks"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/failure"
	"campus/shared/timezone"
)

func newEquipmentService(t *testing.T) (service.Equipment, *equipmentMocks.MockEquipment, *userMocks.MockUser, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := equipmentMocks.NewMockEquipment(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel)

	return svc, mockRepo, mockUserRepo, mockCache
}

func TestEquipmentService_Create(t *testing.T) {
	svc, mockRepo, mockUserRepo, _ := newEquipmentService(t)

	admin := userModel.User{ID: "admin-1", School: "school-a", IsAdmin: true}
	member := userModel.User{ID: "user-1", School: "school-a"}

	req := dto.CreateEquipmentRequest{Name: "Projector"}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "admin creates equipment",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "member is rejected",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "repository error",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "caller")
			err := svc.Create(ctx, req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEquipmentService_BeginUse(t *testing.T) {
	svc, mockRepo, mockUserRepo, _ := newEquipmentService(t)

	member := userModel.User{ID: "user-1", School: "school-a"}
	equipment := model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "member takes free equipment",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					BeginUse(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "equipment in another school is hidden",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				other := equipment
				other.School = "school-b"

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(other, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "equipment not available",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				unavailable := equipment
				unavailable.IsAvailable = false

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(unavailable, nil)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "someone else holds it",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					BeginUse(gomock.Any(), gomock.Any()).
					Return(repository.ErrAlreadyInUse)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "equipment deleted mid-flight",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					BeginUse(gomock.Any(), gomock.Any()).
					Return(repository.ErrEquipmentGone)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
			err := svc.BeginUse(ctx, "equipment-1")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEquipmentService_EndUse(t *testing.T) {
	svc, mockRepo, mockUserRepo, _ := newEquipmentService(t)

	member := userModel.User{ID: "user-1", School: "school-a"}
	equipment := model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true, IsOccupied: true}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
		wantMsg   string
	}{
		{
			name: "holder releases equipment",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					EndUse(gomock.Any(), "equipment-1", "user-1", gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "equipment is not in use",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					EndUse(gomock.Any(), "equipment-1", "user-1", gomock.Any()).
					Return(repository.ErrNotInUse)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "equipment is not in use",
		},
		{
			name: "occupied but caller holds no open record",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					EndUse(gomock.Any(), "equipment-1", "user-1", gomock.Any()).
					Return(repository.ErrNoActiveUsage)
			},
			wantCode: http.StatusConflict,
			wantMsg:  "no active usage record found",
		},
		{
			name: "equipment not found",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Equipment{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
			err := svc.EndUse(ctx, "equipment-1")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, err.Error())
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEquipmentService_Get(t *testing.T) {
	svc, mockRepo, mockUserRepo, mockCache := newEquipmentService(t)

	member := userModel.User{ID: "user-1", School: "school-a"}
	equipment := model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true, IsOccupied: true}

	started := timezone.Now().Add(-2 * time.Hour)
	ended := started.Add(30 * time.Minute)

	records := []model.UsageRecord{
		{
			ID:          "usage-2",
			EquipmentID: "equipment-1",
			UserID:      "user-1",
			StartedAt:   timezone.Now().Add(-time.Hour),
			EndedAt:     nil,
		},
		{
			ID:          "usage-1",
			EquipmentID: "equipment-1",
			UserID:      "user-2",
			StartedAt:   started,
			EndedAt:     &ended,
		},
	}

	mockUserRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(member, nil)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(equipment, nil)

	mockRepo.EXPECT().
		GetUsages(gomock.Any(), "equipment-1").
		Return(records, nil)

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
	res, err := svc.Get(ctx, "equipment-1")

	assert.NoError(t, err)
	assert.Equal(t, "equipment-1", res.ID)
	assert.Len(t, res.Usages, 2)
	assert.Equal(t, 2, res.Stats.TotalCount)
	assert.Equal(t, 1, res.Stats.CompletedCount)
	assert.Equal(t, 30, res.Stats.TotalMinutes)
	assert.True(t, res.Stats.InUseByMe)
}

func TestEquipmentService_Delete(t *testing.T) {
	svc, mockRepo, mockUserRepo, _ := newEquipmentService(t)

	admin := userModel.User{ID: "admin-1", School: "school-a", IsAdmin: true}
	member := userModel.User{ID: "user-1", School: "school-a"}
	equipment := model.Equipment{ID: "equipment-1", School: "school-a"}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "admin deletes equipment",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)

				mockRepo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "member is rejected",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(equipment, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "equipment not found",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Equipment{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "caller")
			err := svc.Delete(ctx, "equipment-1")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// memoryEquipmentRepo honors the same contract as the SQL implementation:
// the flag check, the flag write, and the record write happen under one lock,
// so concurrent takers cannot both succeed.
type memoryEquipmentRepo struct {
	mu        sync.Mutex
	equipment model.Equipment
	records   []model.UsageRecord
}

func (r *memoryEquipmentRepo) Insert(_ context.Context, equipment model.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.equipment = equipment

	return nil
}

func (r *memoryEquipmentRepo) Get(context.Context, gDto.FilterGroup, ...string) (model.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.equipment, nil
}

func (r *memoryEquipmentRepo) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]model.Equipment, error) {
	return nil, nil
}

func (r *memoryEquipmentRepo) Exist(context.Context, gDto.FilterGroup) (bool, error) {
	return false, nil
}

func (r *memoryEquipmentRepo) Count(context.Context, gDto.FilterGroup) (int, error) {
	return 0, nil
}

func (r *memoryEquipmentRepo) Update(context.Context, map[string]any, gDto.FilterGroup) error {
	return nil
}

func (r *memoryEquipmentRepo) Delete(context.Context, gDto.FilterGroup) error {
	return nil
}

func (r *memoryEquipmentRepo) BeginUse(_ context.Context, record model.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.equipment.ID != record.EquipmentID {
		return repository.ErrEquipmentGone
	}

	if r.equipment.IsOccupied {
		return repository.ErrAlreadyInUse
	}

	r.equipment.IsOccupied = true
	r.records = append(r.records, record)

	return nil
}

func (r *memoryEquipmentRepo) EndUse(_ context.Context, equipmentID, userID string, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.equipment.ID != equipmentID {
		return repository.ErrEquipmentGone
	}

	if !r.equipment.IsOccupied {
		return repository.ErrNotInUse
	}

	open := -1

	for i, record := range r.records {
		if record.EquipmentID != equipmentID || record.UserID != userID || !record.Active() {
			continue
		}

		if open == -1 || record.StartedAt.After(r.records[open].StartedAt) {
			open = i
		}
	}

	if open == -1 {
		return repository.ErrNoActiveUsage
	}

	ended := endedAt
	r.records[open].EndedAt = &ended
	r.equipment.IsOccupied = false

	return nil
}

func (r *memoryEquipmentRepo) GetUsages(context.Context, string) ([]model.UsageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]model.UsageRecord, len(r.records))
	copy(records, r.records)

	return records, nil
}

func (r *memoryEquipmentRepo) closedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0

	for _, record := range r.records {
		if !record.Active() {
			closed++
		}
	}

	return closed
}

func newLifecycleService(t *testing.T, repo *memoryEquipmentRepo) service.Equipment {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockUserRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(userModel.User{ID: "user-1", School: "school-a"}, nil).
		AnyTimes()

	mockCache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss")).
		AnyTimes()

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	return service.New(repo, mockUserRepo, cfg, mockCache, mocks.NewOtel())
}

func TestEquipmentService_UseLifecycle(t *testing.T) {
	repo := &memoryEquipmentRepo{
		equipment: model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true},
	}
	svc := newLifecycleService(t, repo)

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

	// Free -> Occupied: flag set, one open record.
	assert.NoError(t, svc.BeginUse(ctx, "equipment-1"))
	assert.True(t, repo.equipment.IsOccupied)
	assert.Len(t, repo.records, 1)
	assert.True(t, repo.records[0].Active())

	// Occupied equipment cannot be taken again, and no record leaks out of
	// the rejected attempt.
	err := svc.BeginUse(ctx, "equipment-1")
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Len(t, repo.records, 1)

	// The detail view sees the occupancy.
	detail, err := svc.Get(ctx, "equipment-1")
	assert.NoError(t, err)
	assert.True(t, detail.IsOccupied)
	assert.True(t, detail.Stats.InUseByMe)
	assert.Equal(t, 1, detail.Stats.TotalCount)
	assert.Equal(t, 0, detail.Stats.CompletedCount)

	// Occupied -> Free: flag cleared, exactly one record closed.
	assert.NoError(t, svc.EndUse(ctx, "equipment-1"))
	assert.False(t, repo.equipment.IsOccupied)
	assert.Len(t, repo.records, 1)
	assert.Equal(t, 1, repo.closedCount())

	// Releasing free equipment is a conflict.
	err = svc.EndUse(ctx, "equipment-1")
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Equal(t, "equipment is not in use", err.Error())

	// The equipment can be taken again; the closed record stays closed.
	assert.NoError(t, svc.BeginUse(ctx, "equipment-1"))
	assert.Len(t, repo.records, 2)
	assert.Equal(t, 1, repo.closedCount())
	assert.True(t, repo.records[1].Active())
}

func TestEquipmentService_EndUseFlagDrift(t *testing.T) {
	// Flag set with no open record: the drift is reported, not repaired.
	repo := &memoryEquipmentRepo{
		equipment: model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true, IsOccupied: true},
	}
	svc := newLifecycleService(t, repo)

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

	err := svc.EndUse(ctx, "equipment-1")
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Equal(t, "no active usage record found", err.Error())
	assert.True(t, repo.equipment.IsOccupied)
}

func TestEquipmentService_BeginUseConcurrent(t *testing.T) {
	repo := &memoryEquipmentRepo{
		equipment: model.Equipment{ID: "equipment-1", School: "school-a", IsAvailable: true},
	}
	svc := newLifecycleService(t, repo)

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

			err := svc.BeginUse(ctx, "equipment-1")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case failure.GetCode(err) == http.StatusConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, repo.records, 1)
}
