package dto

import (
	"campus/internal/domains/facility/model"
	reservationModel "campus/internal/domains/reservation/model"
	reservationDto "campus/internal/domains/reservation/model/dto"
	"campus/shared"
	gDto "campus/shared/dto"
	gModel "campus/shared/model"
	"campus/shared/timezone"

	"github.com/google/uuid"
)

type CreateFacilityRequest struct {
	Name        string `json:"name"         validate:"required,max=100"`
	Description string `json:"description"  validate:"omitempty"`
	Location    string `json:"location"     validate:"omitempty,max=100"`
	OpenTime    string `json:"open_time"    validate:"required,timeofday"`
	CloseTime   string `json:"close_time"   validate:"required,timeofday"`
	IsAvailable *bool  `json:"is_available" validate:"omitempty"`
}

func (c *CreateFacilityRequest) ToModel(school, user string) model.Facility {
	isAvailable := true
	if c.IsAvailable != nil {
		isAvailable = *c.IsAvailable
	}

	return model.Facility{
		ID:          uuid.NewString(),
		School:      school,
		Name:        c.Name,
		Description: c.Description,
		Location:    c.Location,
		IsAvailable: isAvailable,
		OpenTime:    c.OpenTime,
		CloseTime:   c.CloseTime,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateFacilityRequest struct {
	Name        string `db:"name"         json:"name"         validate:"omitempty,max=100"`
	Description string `db:"description"  json:"description"  validate:"omitempty"`
	Location    string `db:"location"     json:"location"     validate:"omitempty,max=100"`
	OpenTime    string `db:"open_time"    json:"open_time"    validate:"omitempty,timeofday"`
	CloseTime   string `db:"close_time"   json:"close_time"   validate:"omitempty,timeofday"`
	IsAvailable *bool  `db:"is_available" json:"is_available" validate:"omitempty"`
}

type FacilityResponse struct {
	ID          string `json:"id"`
	School      string `json:"school"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	IsAvailable bool   `json:"is_available"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	gDto.Metadata
}

func (r *FacilityResponse) FromModel(model model.Facility) {
	r.ID = model.ID
	r.School = model.School
	r.Name = model.Name
	r.Description = model.Description
	r.Location = model.Location
	r.IsAvailable = model.IsAvailable
	r.OpenTime = model.OpenTime
	r.CloseTime = model.CloseTime
	r.Metadata.FromModel(model.Metadata)
}

// FacilityDetailResponse is the single-facility view with its upcoming
// reservations attached.
type FacilityDetailResponse struct {
	FacilityResponse
	Reservations []reservationDto.ReservationResponse `json:"reservations"`
}

func (r *FacilityDetailResponse) FromModel(facility model.Facility, reservations []reservationModel.Reservation) {
	r.FacilityResponse.FromModel(facility)

	r.Reservations = make([]reservationDto.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		r.Reservations[i].FromModel(reservation)
	}
}

type GetFacilitiesResponse struct {
	Facilities []FacilityResponse `json:"facilities"`
	TotalPage  int                `json:"total_page"`
	TotalData  int                `json:"total_data"`
}

func (r *GetFacilitiesResponse) FromModels(models []model.Facility, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Facilities = make([]FacilityResponse, len(models))
	for i, mod := range models {
		r.Facilities[i].FromModel(mod)
	}
}
