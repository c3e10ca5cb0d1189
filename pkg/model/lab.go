package model

import "time"

// Lab is a bookable laboratory room. Names are stored upper-cased and are
// unique across the catalog. Permanent labs are excluded from ad-hoc
// booking and availability search.
type Lab struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=500"`
	Description string    `json:"description,omitempty" bson:"description" validate:"omitempty,max=500"`
	Permanent   bool      `json:"permanent" bson:"permanent"`
	Software    []string  `json:"software,omitempty" bson:"software" validate:"omitempty,max=100,dive,min=1,max=100"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type LabUpdate struct {
	Name        string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Capacity    *int      `json:"capacity,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Permanent   *bool     `json:"permanent,omitempty"`
	Software    *[]string `json:"software,omitempty" validate:"omitempty,max=100,dive,min=1,max=100"`
}

// HasSoftware reports whether the lab's installed set covers every requested
// name. Matching is exact on the normalized names.
func (l *Lab) HasSoftware(required []string) bool {
	if len(required) == 0 {
		return true
	}
	installed := make(map[string]struct{}, len(l.Software))
	for _, s := range l.Software {
		installed[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := installed[s]; !ok {
			return false
		}
	}
	return true
}
