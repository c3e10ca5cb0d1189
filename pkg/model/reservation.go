package model

import "time"

const (
	TypeClass = "CLASS"
	TypeEvent = "EVENT"

	StatusConfirmed = "CONFIRMED"
	StatusOccupied  = "OCCUPIED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Actor identifies the administrative user a reservation was created by.
type Actor struct {
	ID          string `json:"id" bson:"id" validate:"required,min=1,max=100"`
	DisplayName string `json:"display_name" bson:"display_name" validate:"required,min=1,max=100"`
}

// Reservation is a time-bounded occupancy record for a lab. The interval is
// half-open [StartTime, EndTime). For a given lab no two reservations with a
// status other than CANCELLED may overlap; that invariant is enforced at
// write time by the reservation service and backstopped by a unique
// (lab_id, start_time) index.
type Reservation struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LabID        string     `json:"lab_id" bson:"lab_id" validate:"required,mongodb"`
	StartTime    time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime      time.Time  `json:"end_time" bson:"end_time" validate:"required"`
	Subject      string     `json:"subject" bson:"subject" validate:"required,min=2,max=200"`
	Description  string     `json:"description,omitempty" bson:"description" validate:"omitempty,max=500"`
	Type         string     `json:"type" bson:"type" validate:"required,oneof=CLASS EVENT"`
	Status       string     `json:"status" bson:"status" validate:"required,oneof=CONFIRMED OCCUPIED COMPLETED CANCELLED"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty" bson:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" bson:"check_out_time,omitempty"`
	SchoolID     string     `json:"school_id,omitempty" bson:"school_id,omitempty" validate:"omitempty,mongodb"`
	CreatedBy    Actor      `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Active reports whether the reservation still occupies its interval.
// Cancellation is a status change, never a deletion.
func (r *Reservation) Active() bool {
	return r.Status != StatusCancelled
}
