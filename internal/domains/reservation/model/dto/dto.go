package dto

import (
	"time"

	"campus/internal/domains/reservation/model"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	gModel "campus/shared/model"
	"campus/shared/timezone"

	"github.com/google/uuid"
)

type ReserveFacilityRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time"   validate:"required"`
}

func (c *ReserveFacilityRequest) ToModel(facilityID, user string) (model.Reservation, error) {
	startTime, err := time.Parse(constant.DateFormat, c.StartTime)
	if err != nil {
		return model.Reservation{}, err
	}

	endTime, err := time.Parse(constant.DateFormat, c.EndTime)
	if err != nil {
		return model.Reservation{}, err
	}

	return model.Reservation{
		ID:         uuid.NewString(),
		FacilityID: facilityID,
		UserID:     user,
		StartTime:  startTime,
		EndTime:    endTime,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type ReservationResponse struct {
	ID         string `json:"id"`
	FacilityID string `json:"facility_id"`
	UserID     string `json:"user_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.FacilityID = model.FacilityID
	r.UserID = model.UserID
	r.StartTime = model.StartTime.Format(constant.DateFormat)
	r.EndTime = model.EndTime.Format(constant.DateFormat)
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation) {
	r.TotalData = len(models)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}
