package model

import (
	"campus/shared/model"
)

const (
	TableName  = "facilities"
	EntityName = "facility"

	FieldID          = "id"
	FieldSchool      = "school"
	FieldName        = "name"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldIsAvailable = "is_available"
	FieldOpenTime    = "open_time"
	FieldCloseTime   = "close_time"
)

// Facility is a reservable space scoped to a single school. OpenTime and
// CloseTime hold wall-clock HH:MM strings.
type Facility struct {
	ID          string `db:"id"`
	School      string `db:"school"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Location    string `db:"location"`
	IsAvailable bool   `db:"is_available"`
	OpenTime    string `db:"open_time"`
	CloseTime   string `db:"close_time"`
	model.Metadata
}
