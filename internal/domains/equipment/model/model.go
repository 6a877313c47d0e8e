package model

import (
	"time"

	"campus/shared/model"
)

const (
	TableName  = "equipment"
	EntityName = "equipment"

	FieldID          = "id"
	FieldSchool      = "school"
	FieldName        = "name"
	FieldDescription = "description"
	FieldIsAvailable = "is_available"
	FieldIsOccupied  = "is_occupied"
)

const (
	UsageTableName  = "equipment_usage_records"
	UsageEntityName = "usage_record"

	FieldUsageID          = "id"
	FieldUsageEquipmentID = "equipment_id"
	FieldUsageUserID      = "user_id"
	FieldUsageStartedAt   = "started_at"
	FieldUsageEndedAt     = "ended_at"
)

// Equipment is a single-occupancy item scoped to a school. IsOccupied is the
// fast-path flag; the open usage record is the source of truth for who holds
// it.
type Equipment struct {
	ID          string `db:"id"`
	School      string `db:"school"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsAvailable bool   `db:"is_available"`
	IsOccupied  bool   `db:"is_occupied"`
	model.Metadata
}

// UsageRecord tracks one occupancy span. A NULL EndedAt marks the record as
// still active.
type UsageRecord struct {
	ID          string     `db:"id"`
	EquipmentID string     `db:"equipment_id"`
	UserID      string     `db:"user_id"`
	StartedAt   time.Time  `db:"started_at"`
	EndedAt     *time.Time `db:"ended_at"`
	model.Metadata
}

// Active reports whether the record still holds the equipment.
func (r *UsageRecord) Active() bool {
	return r.EndedAt == nil
}
