package model

import (
	"time"

	"campus/shared/model"
)

const (
	TableName  = "facility_reservations"
	EntityName = "reservation"

	FieldID         = "id"
	FieldFacilityID = "facility_id"
	FieldUserID     = "user_id"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"
)

// Reservation holds a half-open [StartTime, EndTime) window on a facility.
type Reservation struct {
	ID         string    `db:"id"`
	FacilityID string    `db:"facility_id"`
	UserID     string    `db:"user_id"`
	StartTime  time.Time `db:"start_time"`
	EndTime    time.Time `db:"end_time"`
	model.Metadata
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
