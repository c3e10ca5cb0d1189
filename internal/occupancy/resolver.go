// Package occupancy derives a lab's live state and day timeline from its
// reservation set. Everything here is a pure function of its inputs; callers
// fetch reservations from the repository and pass them in together with the
// instant to evaluate at.
package occupancy

import (
	"sort"
	"strings"
	"time"

	"labreserve/pkg/model"
	"labreserve/pkg/timeutil"
)

// UnknownProfessor is reported when a reservation carries neither a marked
// description nor a creator display name.
const UnknownProfessor = "unknown user"

// Resolve classifies a lab at the given instant. Priority is
// OVERDUE > OCCUPIED > RESERVED > FREE:
//
//   - OVERDUE: some reservation is still OCCUPIED past its end time.
//   - OCCUPIED: a reservation covering now has been checked in.
//   - RESERVED: a CONFIRMED reservation covers now but nobody checked in.
//   - FREE: none of the above.
//
// Cancelled reservations are ignored entirely. The snapshot also carries the
// next upcoming reservation and the professor name for the current one.
func Resolve(now time.Time, reservations []model.Reservation, professorMarker string) model.StatusSnapshot {
	snapshot := model.StatusSnapshot{Status: model.StateFree}

	for i := range reservations {
		r := &reservations[i]
		if !r.Active() {
			continue
		}

		if r.Status == model.StatusOccupied && r.EndTime.Before(now) {
			if snapshot.Overdue == nil || r.EndTime.Before(snapshot.Overdue.EndTime) {
				snapshot.Overdue = r
			}
			continue
		}

		if snapshot.Current == nil &&
			(r.Status == model.StatusConfirmed || r.Status == model.StatusOccupied) &&
			timeutil.Contains(now, r.StartTime, r.EndTime) {
			snapshot.Current = r
		}

		if r.StartTime.After(now) {
			if snapshot.Next == nil || r.StartTime.Before(snapshot.Next.StartTime) {
				snapshot.Next = r
			}
		}
	}

	switch {
	case snapshot.Overdue != nil:
		snapshot.Status = model.StateOverdue
		snapshot.Professor = ProfessorName(snapshot.Overdue, professorMarker)
	case snapshot.Current != nil:
		if snapshot.Current.Status == model.StatusOccupied || snapshot.Current.CheckInTime != nil {
			snapshot.Status = model.StateOccupied
		} else {
			snapshot.Status = model.StateReserved
		}
		snapshot.Professor = ProfessorName(snapshot.Current, professorMarker)
	}

	return snapshot
}

// ProfessorName extracts the professor for a reservation. Descriptions
// written by the roster import carry the name behind a fixed marker prefix;
// anything else falls back to the creator's display name.
func ProfessorName(r *model.Reservation, marker string) string {
	if r == nil {
		return ""
	}
	if marker != "" && strings.HasPrefix(r.Description, marker) {
		if name := strings.TrimSpace(strings.TrimPrefix(r.Description, marker)); name != "" {
			return name
		}
	}
	if r.CreatedBy.DisplayName != "" {
		return r.CreatedBy.DisplayName
	}
	return UnknownProfessor
}

// SortByStart orders reservations by start time ascending, in place.
func SortByStart(reservations []model.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].StartTime.Before(reservations[j].StartTime)
	})
}
