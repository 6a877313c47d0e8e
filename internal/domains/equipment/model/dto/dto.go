package dto

import (
	"campus/internal/domains/equipment/model"
	"campus/shared"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	gModel "campus/shared/model"
	"campus/shared/timezone"

	"github.com/google/uuid"
)

type CreateEquipmentRequest struct {
	Name        string `json:"name"         validate:"required,max=100"`
	Description string `json:"description"  validate:"omitempty"`
	IsAvailable *bool  `json:"is_available" validate:"omitempty"`
}

func (c *CreateEquipmentRequest) ToModel(school, user string) model.Equipment {
	isAvailable := true
	if c.IsAvailable != nil {
		isAvailable = *c.IsAvailable
	}

	return model.Equipment{
		ID:          uuid.NewString(),
		School:      school,
		Name:        c.Name,
		Description: c.Description,
		IsAvailable: isAvailable,
		IsOccupied:  false,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateEquipmentRequest struct {
	Name        string `db:"name"         json:"name"         validate:"omitempty,max=100"`
	Description string `db:"description"  json:"description"  validate:"omitempty"`
	IsAvailable *bool  `db:"is_available" json:"is_available" validate:"omitempty"`
}

type EquipmentResponse struct {
	ID          string `json:"id"`
	School      string `json:"school"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsAvailable bool   `json:"is_available"`
	IsOccupied  bool   `json:"is_occupied"`
	gDto.Metadata
}

func (r *EquipmentResponse) FromModel(model model.Equipment) {
	r.ID = model.ID
	r.School = model.School
	r.Name = model.Name
	r.Description = model.Description
	r.IsAvailable = model.IsAvailable
	r.IsOccupied = model.IsOccupied
	r.Metadata.FromModel(model.Metadata)
}

type UsageRecordResponse struct {
	ID          string  `json:"id"`
	EquipmentID string  `json:"equipment_id"`
	UserID      string  `json:"user_id"`
	StartedAt   string  `json:"started_at"`
	EndedAt     *string `json:"ended_at"`
}

func (r *UsageRecordResponse) FromModel(record model.UsageRecord) {
	r.ID = record.ID
	r.EquipmentID = record.EquipmentID
	r.UserID = record.UserID
	r.StartedAt = record.StartedAt.Format(constant.DateFormat)

	if record.EndedAt != nil {
		endedAt := record.EndedAt.Format(constant.DateFormat)
		r.EndedAt = &endedAt
	}
}

// UsageStats is derived from the stored usage records at read time; nothing
// is counted in the equipment row itself.
type UsageStats struct {
	TotalCount     int  `json:"total_count"`
	CompletedCount int  `json:"completed_count"`
	TotalMinutes   int  `json:"total_minutes"`
	InUseByMe      bool `json:"in_use_by_me"`
}

func (s *UsageStats) FromModels(records []model.UsageRecord, callerID string) {
	s.TotalCount = len(records)

	for _, record := range records {
		if record.Active() {
			if record.UserID == callerID {
				s.InUseByMe = true
			}

			continue
		}

		s.CompletedCount++
		s.TotalMinutes += int(record.EndedAt.Sub(record.StartedAt).Minutes())
	}
}

type EquipmentDetailResponse struct {
	EquipmentResponse
	Usages []UsageRecordResponse `json:"usages"`
	Stats  UsageStats            `json:"stats"`
}

func (r *EquipmentDetailResponse) FromModel(equipment model.Equipment, records []model.UsageRecord, callerID string) {
	r.EquipmentResponse.FromModel(equipment)

	r.Usages = make([]UsageRecordResponse, len(records))
	for i, record := range records {
		r.Usages[i].FromModel(record)
	}

	r.Stats.FromModels(records, callerID)
}

type GetEquipmentsResponse struct {
	Equipments []EquipmentResponse `json:"equipments"`
	TotalPage  int                 `json:"total_page"`
	TotalData  int                 `json:"total_data"`
}

func (r *GetEquipmentsResponse) FromModels(models []model.Equipment, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Equipments = make([]EquipmentResponse, len(models))
	for i, mod := range models {
		r.Equipments[i].FromModel(mod)
	}
}
