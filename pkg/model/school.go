package model

import "time"

// School is a classification tag attached to reservations. The short code
// is unique and is what the roster classifier resolves subjects to.
type School struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code      string    `json:"code" bson:"code" validate:"required,uppercase,min=2,max=10"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Color     string    `json:"color" bson:"color" validate:"required,hexcolor"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type SchoolUpdate struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}
