package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"campus/config"
	"campus/infras/otel/mocks"
	facilityMocks "campus/internal/domains/facility/mocks"
	"campus/internal/domains/facility/model"
	"campus/internal/domains/facility/model/dto"
	"campus/internal/domains/facility/service"
	reservationMocks "campus/internal/domains/reservation/mocks"
	reservationModel "campus/internal/domains/reservation/model"
	userMocks "campus/internal/domains/user/mocks"
	userModel "campus/internal/domains/user/model"
	cacheMocks "campus/shared/cache/mocks"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/failure"
	"campus/shared/timezone"
)

func newFacilityService(t *testing.T) (service.Facility, *facilityMocks.MockFacility, *reservationMocks.MockReservation, *userMocks.MockUser, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := facilityMocks.NewMockFacility(ctrl)
	mockReservationRepo := reservationMocks.NewMockReservation(ctrl)
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
		Delete(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	svc := service.New(mockRepo, mockReservationRepo, mockUserRepo, cfg, mockCache, mockOtel)

	return svc, mockRepo, mockReservationRepo, mockUserRepo, mockCache
}

func TestFacilityService_Create(t *testing.T) {
	svc, mockRepo, _, mockUserRepo, _ := newFacilityService(t)

	admin := userModel.User{ID: "admin-1", School: "school-a", IsAdmin: true}
	member := userModel.User{ID: "user-1", School: "school-a"}

	validReq := dto.CreateFacilityRequest{
		Name:      "Gym",
		OpenTime:  "08:00",
		CloseTime: "22:00",
	}

	tests := []struct {
		name      string
		req       dto.CreateFacilityRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "admin creates facility",
			req:  validReq,
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
			req:  validReq,
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "caller not in directory",
			req:  validReq,
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(userModel.User{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "open time after close time",
			req: dto.CreateFacilityRequest{
				Name:      "Gym",
				OpenTime:  "22:00",
				CloseTime: "08:00",
			},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "open time equals close time",
			req: dto.CreateFacilityRequest{
				Name:      "Gym",
				OpenTime:  "08:00",
				CloseTime: "08:00",
			},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "repository error",
			req:  validReq,
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
			err := svc.Create(ctx, tt.req)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFacilityService_Get(t *testing.T) {
	svc, mockRepo, mockReservationRepo, mockUserRepo, mockCache := newFacilityService(t)

	member := userModel.User{ID: "user-1", School: "school-a"}
	facility := model.Facility{
		ID:          "facility-1",
		School:      "school-a",
		Name:        "Gym",
		IsAvailable: true,
		OpenTime:    "08:00",
		CloseTime:   "22:00",
	}

	tests := []struct {
		name             string
		id               string
		setupMock        func()
		wantCode         int
		wantReservations int
	}{
		{
			name: "facility with upcoming reservations",
			id:   "facility-1",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)

				reservations := []reservationModel.Reservation{
					{
						ID:         "reservation-1",
						FacilityID: "facility-1",
						UserID:     "user-2",
						StartTime:  timezone.Now().Add(time.Hour),
						EndTime:    timezone.Now().Add(2 * time.Hour),
					},
				}

				mockReservationRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(reservations, nil)
			},
			wantReservations: 1,
		},
		{
			name: "facility in another school is hidden",
			id:   "facility-1",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				other := facility
				other.School = "school-b"

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(other, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "facility not found",
			id:   "missing",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Facility{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
			res, err := svc.Get(ctx, tt.id)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, res.ID)
				assert.Len(t, res.Reservations, tt.wantReservations)
			}
		})
	}
}

func TestFacilityService_GetAll(t *testing.T) {
	svc, mockRepo, _, mockUserRepo, mockCache := newFacilityService(t)

	member := userModel.User{ID: "user-1", School: "school-a"}

	mockUserRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(member, nil).
		AnyTimes()

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss")).
		AnyTimes()

	mockRepo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(2, nil)

	facilities := []model.Facility{
		{ID: "facility-1", School: "school-a", Name: "Gym"},
		{ID: "facility-2", School: "school-a", Name: "Pool"},
	}

	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(facilities, nil)

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
	res, err := svc.GetAll(ctx, gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)
	assert.Len(t, res.Facilities, 2)
}

func TestFacilityService_Update(t *testing.T) {
	svc, mockRepo, _, mockUserRepo, _ := newFacilityService(t)

	admin := userModel.User{ID: "admin-1", School: "school-a", IsAdmin: true}
	member := userModel.User{ID: "user-1", School: "school-a"}
	facility := model.Facility{
		ID:        "facility-1",
		School:    "school-a",
		Name:      "Gym",
		OpenTime:  "08:00",
		CloseTime: "22:00",
	}

	tests := []struct {
		name      string
		req       dto.UpdateFacilityRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "admin updates name",
			req:  dto.UpdateFacilityRequest{Name: "Main Gym"},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:      "empty update request",
			req:       dto.UpdateFacilityRequest{},
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "member is rejected",
			req:  dto.UpdateFacilityRequest{Name: "Main Gym"},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(member, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "new open time collides with stored close time",
			req:  dto.UpdateFacilityRequest{OpenTime: "23:00"},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "both bounds replaced with a valid window",
			req:  dto.UpdateFacilityRequest{OpenTime: "06:00", CloseTime: "12:00"},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "caller")
			err := svc.Update(ctx, tt.req, "facility-1")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFacilityService_Delete(t *testing.T) {
	svc, mockRepo, _, mockUserRepo, _ := newFacilityService(t)

	admin := userModel.User{ID: "admin-1", School: "school-a", IsAdmin: true}
	member := userModel.User{ID: "user-1", School: "school-a"}
	facility := model.Facility{ID: "facility-1", School: "school-a", Name: "Gym"}

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "admin deletes facility",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(facility, nil)

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
					Return(facility, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "facility not found",
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(admin, nil)

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Facility{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "caller")
			err := svc.Delete(ctx, "facility-1")

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
