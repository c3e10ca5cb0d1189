package occupancy

import (
	"testing"
	"time"

	"labreserve/pkg/model"
)

func window() (start, end, boundary time.Time) {
	return at(7, 0), at(22, 0), at(13, 0)
}

func checkCoverage(t *testing.T, slots []model.TimelineSlot, windowStart, windowEnd time.Time) {
	t.Helper()

	if len(slots) == 0 {
		t.Fatal("timeline is empty")
	}
	if !slots[0].StartTime.Equal(windowStart) {
		t.Errorf("first slot starts at %s, want %s", slots[0].StartTime, windowStart)
	}
	if !slots[len(slots)-1].EndTime.Equal(windowEnd) {
		t.Errorf("last slot ends at %s, want %s", slots[len(slots)-1].EndTime, windowEnd)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].StartTime.Equal(slots[i-1].EndTime) {
			t.Errorf("gap between slot %d and %d: %s != %s",
				i-1, i, slots[i-1].EndTime, slots[i].StartTime)
		}
	}
	for i, slot := range slots {
		if !slot.StartTime.Before(slot.EndTime) {
			t.Errorf("slot %d is empty or inverted: [%s, %s)", i, slot.StartTime, slot.EndTime)
		}
	}
}

func TestBuildTimeline_EmptyDay(t *testing.T) {
	start, end, boundary := window()

	slots := BuildTimeline(nil, start, end, boundary)

	checkCoverage(t, slots, start, end)
	if len(slots) != 2 {
		t.Fatalf("expected the free day split at the boundary into 2 slots, got %d", len(slots))
	}
	if slots[0].Kind != model.SlotFree || slots[1].Kind != model.SlotFree {
		t.Errorf("expected only free slots")
	}
	if !slots[0].EndTime.Equal(boundary) {
		t.Errorf("morning slot ends at %s, want %s", slots[0].EndTime, boundary)
	}
}

func TestBuildTimeline_SingleReservation(t *testing.T) {
	start, end, boundary := window()
	res := reservation(at(9, 0), at(11, 0), model.StatusConfirmed)

	slots := BuildTimeline([]model.Reservation{res}, start, end, boundary)

	checkCoverage(t, slots, start, end)

	// 07-09 free, 09-11 occupied, 11-13 free, 13-22 free.
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	if slots[1].Kind != model.SlotOccupied {
		t.Errorf("slot 1 kind = %s, want OCCUPIED", slots[1].Kind)
	}
	if slots[1].Reservation == nil || slots[1].Reservation.ID != res.ID {
		t.Errorf("occupied slot does not carry its reservation")
	}
}

func TestBuildTimeline_SplitAtBoundary(t *testing.T) {
	start, end, boundary := window()
	res := reservation(at(12, 0), at(14, 0), model.StatusConfirmed)

	slots := BuildTimeline([]model.Reservation{res}, start, end, boundary)

	checkCoverage(t, slots, start, end)

	var occupied []model.TimelineSlot
	for _, slot := range slots {
		if slot.Kind == model.SlotOccupied {
			occupied = append(occupied, slot)
		}
	}
	if len(occupied) != 2 {
		t.Fatalf("reservation straddling the boundary should yield 2 occupied slots, got %d", len(occupied))
	}
	if !occupied[0].EndTime.Equal(boundary) || !occupied[1].StartTime.Equal(boundary) {
		t.Errorf("occupied slots do not meet at the boundary")
	}
	if occupied[0].Reservation.ID != res.ID || occupied[1].Reservation.ID != res.ID {
		t.Errorf("both halves must carry the same reservation")
	}
}

func TestBuildTimeline_ClampsToWindow(t *testing.T) {
	start, end, boundary := window()

	early := reservation(at(6, 0), at(8, 0), model.StatusConfirmed)
	late := reservation(at(21, 0), at(23, 0), model.StatusConfirmed)
	outside := reservation(at(5, 0), at(6, 30), model.StatusConfirmed)

	slots := BuildTimeline([]model.Reservation{early, late, outside}, start, end, boundary)

	checkCoverage(t, slots, start, end)
	for _, slot := range slots {
		if slot.Kind == model.SlotOccupied && slot.Reservation.ID == outside.ID {
			t.Errorf("reservation outside the window leaked into the timeline")
		}
	}
	if !slots[0].StartTime.Equal(start) || slots[0].Kind != model.SlotOccupied {
		t.Errorf("early reservation should be clamped to window start")
	}
}

func TestBuildTimeline_IgnoresCancelled(t *testing.T) {
	start, end, boundary := window()
	cancelled := reservation(at(9, 0), at(10, 0), model.StatusCancelled)

	slots := BuildTimeline([]model.Reservation{cancelled}, start, end, boundary)

	for _, slot := range slots {
		if slot.Kind == model.SlotOccupied {
			t.Errorf("cancelled reservation produced an occupied slot")
		}
	}
}

func TestBuildTimeline_BackToBackReservations(t *testing.T) {
	start, end, boundary := window()
	first := reservation(at(9, 0), at(10, 0), model.StatusConfirmed)
	second := reservation(at(10, 0), at(11, 0), model.StatusConfirmed)

	slots := BuildTimeline([]model.Reservation{second, first}, start, end, boundary)

	checkCoverage(t, slots, start, end)

	// No free slot in between.
	for i := 1; i < len(slots); i++ {
		if slots[i-1].Kind == model.SlotOccupied && slots[i].Kind == model.SlotOccupied {
			return
		}
	}
	t.Errorf("expected two adjacent occupied slots")
}

func TestCoalesceFree(t *testing.T) {
	start, end, boundary := window()
	res := reservation(at(9, 0), at(11, 0), model.StatusConfirmed)

	slots := BuildTimeline([]model.Reservation{res}, start, end, boundary)
	ranges := CoalesceFree(slots)

	// 07-09 free, then 11-22 free (the 13:00 split must be merged back).
	if len(ranges) != 2 {
		t.Fatalf("got %d free ranges, want 2", len(ranges))
	}
	if !ranges[0].StartTime.Equal(at(7, 0)) || !ranges[0].EndTime.Equal(at(9, 0)) {
		t.Errorf("first free range = [%s, %s)", ranges[0].StartTime, ranges[0].EndTime)
	}
	if !ranges[1].StartTime.Equal(at(11, 0)) || !ranges[1].EndTime.Equal(at(22, 0)) {
		t.Errorf("second free range = [%s, %s)", ranges[1].StartTime, ranges[1].EndTime)
	}
}
