package model

import "time"

// LabState classifies a lab's occupancy at a given instant.
type LabState string

const (
	StateFree     LabState = "FREE"
	StateReserved LabState = "RESERVED"
	StateOccupied LabState = "OCCUPIED"
	StateOverdue  LabState = "OVERDUE"
)

// StatusSnapshot is the authoritative answer to "what is happening in this
// lab right now". It is derived on every query, never stored.
type StatusSnapshot struct {
	Status    LabState     `json:"status"`
	Current   *Reservation `json:"current,omitempty"`
	Overdue   *Reservation `json:"overdue,omitempty"`
	Next      *Reservation `json:"next,omitempty"`
	Professor string       `json:"professor,omitempty"`
}

// SlotKind marks a timeline slot as free time or a reservation.
type SlotKind string

const (
	SlotFree     SlotKind = "FREE"
	SlotOccupied SlotKind = "OCCUPIED"
)

// TimelineSlot is one entry of a lab's gapless day timeline. Occupied slots
// carry the reservation they were cut from; a reservation split at the
// morning/afternoon boundary appears in two slots with the same payload.
type TimelineSlot struct {
	Kind        SlotKind     `json:"kind"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// FreeRange is a maximal run of free timeline slots, used for the
// "available for booking" display.
type FreeRange struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
