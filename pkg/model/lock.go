package model

import "time"

// ReservationLock is an advisory lock document keyed by lab and slot start.
// Two concurrent bookings for the same slot race on the _id unique index;
// the loser sees a duplicate key error. Locks auto-expire via a TTL index
// on expires_at.
type ReservationLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
