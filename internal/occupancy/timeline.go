package occupancy

import (
	"time"

	"labreserve/pkg/model"
	"labreserve/pkg/timeutil"
)

// BuildTimeline turns a lab's reservations for one day into a gapless slot
// sequence covering exactly [windowStart, windowEnd). Reservations are
// clamped to the window; anything entirely outside it is dropped. Slots
// straddling the split boundary are cut in two so morning and afternoon
// render as separate blocks.
func BuildTimeline(reservations []model.Reservation, windowStart, windowEnd, boundary time.Time) []model.TimelineSlot {
	active := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Active() && timeutil.Overlaps(r.StartTime, r.EndTime, windowStart, windowEnd) {
			active = append(active, r)
		}
	}
	SortByStart(active)

	slots := make([]model.TimelineSlot, 0, 2*len(active)+1)
	cursor := windowStart

	for i := range active {
		r := &active[i]

		start := r.StartTime
		if start.Before(cursor) {
			start = cursor
		}
		end := r.EndTime
		if end.After(windowEnd) {
			end = windowEnd
		}
		if !start.Before(end) {
			continue
		}

		if cursor.Before(start) {
			slots = append(slots, model.TimelineSlot{
				Kind:      model.SlotFree,
				StartTime: cursor,
				EndTime:   start,
			})
		}

		slots = append(slots, model.TimelineSlot{
			Kind:        model.SlotOccupied,
			StartTime:   start,
			EndTime:     end,
			Reservation: r,
		})
		cursor = end
	}

	if cursor.Before(windowEnd) {
		slots = append(slots, model.TimelineSlot{
			Kind:      model.SlotFree,
			StartTime: cursor,
			EndTime:   windowEnd,
		})
	}

	return SplitAt(slots, boundary)
}

// SplitAt cuts every slot straddling the boundary into two slots. Occupied
// halves keep the same reservation payload.
func SplitAt(slots []model.TimelineSlot, boundary time.Time) []model.TimelineSlot {
	out := make([]model.TimelineSlot, 0, len(slots)+1)
	for _, slot := range slots {
		if slot.StartTime.Before(boundary) && boundary.Before(slot.EndTime) {
			first := slot
			first.EndTime = boundary
			second := slot
			second.StartTime = boundary
			out = append(out, first, second)
			continue
		}
		out = append(out, slot)
	}
	return out
}

// CoalesceFree merges runs of adjacent free slots into maximal free ranges.
// Slots must be ordered and gapless, as produced by BuildTimeline.
func CoalesceFree(slots []model.TimelineSlot) []model.FreeRange {
	var ranges []model.FreeRange
	for _, slot := range slots {
		if slot.Kind != model.SlotFree {
			continue
		}
		if n := len(ranges); n > 0 && ranges[n-1].EndTime.Equal(slot.StartTime) {
			ranges[n-1].EndTime = slot.EndTime
			continue
		}
		ranges = append(ranges, model.FreeRange{
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	return ranges
}
