package service

import (
	"context"
	"testing"
	"time"

	"labreserve/pkg/classify"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"
)

type mockLabResolver struct {
	findByNameFunc func(ctx context.Context, name string) (*model.Lab, error)
}

func (m *mockLabResolver) FindByName(ctx context.Context, name string) (*model.Lab, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, name)
	}
	return &model.Lab{ID: "65b2f0a1c4d5e6f7a8b9c0aa", Name: name, Capacity: 30}, nil
}

type mockSchoolResolver struct {
	ensureByCodeFunc func(ctx context.Context, code string) (*model.School, error)
}

func (m *mockSchoolResolver) EnsureByCode(ctx context.Context, code string) (*model.School, error) {
	if m.ensureByCodeFunc != nil {
		return m.ensureByCodeFunc(ctx, code)
	}
	return &model.School{ID: "65b2f0a1c4d5e6f7a8b9c0e1", Code: code, Name: code, Color: "#64748B"}, nil
}

// mockReservationStore keeps created reservations keyed by lab and start
// instant, mimicking the exact-start dedup probe.
type mockReservationStore struct {
	created []model.Reservation
	updated int
}

func (m *mockReservationStore) Create(ctx context.Context, r *model.Reservation) error {
	copy := *r
	copy.ID = "65b2f0a1c4d5e6f7a8b9c0d1"
	m.created = append(m.created, copy)
	return nil
}

func (m *mockReservationStore) FindActiveByLabAndStart(ctx context.Context, labID string, start time.Time) (*model.Reservation, error) {
	for i := range m.created {
		if m.created[i].LabID == labID && m.created[i].StartTime.Equal(start) {
			return &m.created[i], nil
		}
	}
	return nil, nil
}

func (m *mockReservationStore) UpdateClassification(ctx context.Context, id string, schoolID string, description string) error {
	m.updated++
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatJSON,
		Service: "test",
	})
	loc := time.UTC
	return &config.Config{
		Log:               log,
		Location:          loc,
		SemesterStart:     time.Date(2025, 9, 1, 0, 0, 0, 0, loc),
		SemesterEnd:       time.Date(2026, 1, 31, 0, 0, 0, 0, loc),
		ProfessorMarker:   "Profesor: ",
		DefaultSchoolCode: "TC",
		SchoolRules: []classify.Rule{
			{Keywords: []string{"programación", "redes"}, SchoolCode: "ING"},
		},
		SystemActor: model.Actor{ID: "system-admin", DisplayName: "Administración de Laboratorios"},
	}
}

func newTestService(store *mockReservationStore) RosterService {
	return NewRosterService(&mockLabResolver{}, &mockSchoolResolver{}, store, testConfig())
}

func mondayRule() model.RecurrenceRule {
	return model.RecurrenceRule{
		Weekday:   "LUNES",
		StartTime: "09:00",
		EndTime:   "11:00",
		Subject:   "Programación Avanzada",
		Professor: "Ana Torres",
		LabName:   "LAB A",
	}
}

func TestExpand_MondayRuleOverSemester(t *testing.T) {
	store := &mockReservationStore{}
	svc := newTestService(store)

	summary, err := svc.Expand(context.Background(), []model.RecurrenceRule{mondayRule()})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	// 2025-09-01 is a Monday; the window through 2026-01-31 holds 22 Mondays.
	if summary.Created != 22 {
		t.Errorf("created = %d, want 22", summary.Created)
	}
	if len(summary.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", summary.Skipped)
	}

	for _, r := range store.created {
		if r.StartTime.Weekday() != time.Monday {
			t.Errorf("reservation on %s, want Monday", r.StartTime.Weekday())
		}
		if r.Type != model.TypeClass || r.Status != model.StatusConfirmed {
			t.Errorf("reservation type/status = %s/%s, want CLASS/CONFIRMED", r.Type, r.Status)
		}
		if r.Description != "Profesor: Ana Torres" {
			t.Errorf("description = %q", r.Description)
		}
	}

	first := store.created[0]
	if !first.StartTime.Equal(time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("first occurrence starts at %s", first.StartTime)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	store := &mockReservationStore{}
	svc := newTestService(store)

	rules := []model.RecurrenceRule{mondayRule()}

	if _, err := svc.Expand(context.Background(), rules); err != nil {
		t.Fatalf("first expansion failed: %v", err)
	}
	firstCount := len(store.created)

	summary, err := svc.Expand(context.Background(), rules)
	if err != nil {
		t.Fatalf("second expansion failed: %v", err)
	}

	if len(store.created) != firstCount {
		t.Errorf("re-import created %d new reservations", len(store.created)-firstCount)
	}
	if summary.Created != 0 {
		t.Errorf("second run reported created = %d, want 0", summary.Created)
	}
	if summary.Updated != firstCount {
		t.Errorf("second run updated = %d, want %d", summary.Updated, firstCount)
	}
}

func TestExpand_SkipAccounting(t *testing.T) {
	store := &mockReservationStore{}
	svc := newTestService(store)

	rules := []model.RecurrenceRule{
		{Weekday: "FUNDAY", StartTime: "09:00", EndTime: "10:00", Subject: "X", LabName: "LAB A"},
		{Weekday: "MARTES", StartTime: "quarter past", EndTime: "10:00", Subject: "X", LabName: "LAB A"},
		{Weekday: "MARTES", StartTime: "10:00", EndTime: "09:00", Subject: "X", LabName: "LAB A"},
		mondayRule(),
	}

	summary, err := svc.Expand(context.Background(), rules)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	if len(summary.Skipped) != 3 {
		t.Fatalf("skipped = %d rules, want 3", len(summary.Skipped))
	}

	wantCodes := []string{SkipUnknownWeekday, SkipInvalidTime, SkipInvalidInterval}
	for i, want := range wantCodes {
		if summary.Skipped[i].Code != want {
			t.Errorf("skip %d code = %s, want %s", i, summary.Skipped[i].Code, want)
		}
		if summary.Skipped[i].Index != i {
			t.Errorf("skip %d index = %d", i, summary.Skipped[i].Index)
		}
	}

	// The valid rule still ran.
	if summary.Created != 22 {
		t.Errorf("created = %d, want 22", summary.Created)
	}
}

func TestExpand_LabNotFoundSkips(t *testing.T) {
	labs := &mockLabResolver{
		findByNameFunc: func(ctx context.Context, name string) (*model.Lab, error) {
			return nil, apperrors.NotFound("Lab")
		},
	}
	svc := NewRosterService(labs, &mockSchoolResolver{}, &mockReservationStore{}, testConfig())

	summary, err := svc.Expand(context.Background(), []model.RecurrenceRule{mondayRule()})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].Code != SkipLabNotFound {
		t.Errorf("skipped = %+v, want one LAB_NOT_FOUND", summary.Skipped)
	}
}

func TestExpand_ClassifiesSubjectWhenCodeMissing(t *testing.T) {
	var resolvedCode string
	schools := &mockSchoolResolver{
		ensureByCodeFunc: func(ctx context.Context, code string) (*model.School, error) {
			resolvedCode = code
			return &model.School{ID: "65b2f0a1c4d5e6f7a8b9c0e1", Code: code}, nil
		},
	}
	svc := NewRosterService(&mockLabResolver{}, schools, &mockReservationStore{}, testConfig())

	rule := mondayRule()
	rule.SchoolCode = ""
	rule.Subject = "Redes de Computadores"

	if _, err := svc.Expand(context.Background(), []model.RecurrenceRule{rule}); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if resolvedCode != "ING" {
		t.Errorf("classified school = %q, want ING", resolvedCode)
	}
}

func TestExpandWindow_Override(t *testing.T) {
	store := &mockReservationStore{}
	svc := newTestService(store)

	// Two full weeks starting on a Monday hold exactly two Mondays.
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 14, 0, 0, 0, 0, time.UTC)

	summary, err := svc.ExpandWindow(context.Background(), []model.RecurrenceRule{mondayRule()}, start, end)
	if err != nil {
		t.Fatalf("ExpandWindow failed: %v", err)
	}
	if summary.Created != 2 {
		t.Errorf("created = %d, want 2", summary.Created)
	}
}

func TestExpandWindow_InvertedWindow(t *testing.T) {
	svc := newTestService(&mockReservationStore{})

	start := time.Date(2025, 9, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.ExpandWindow(context.Background(), []model.RecurrenceRule{mondayRule()}, start, end)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInterval {
		t.Errorf("err = %v, want %s", err, apperrors.CodeInvalidInterval)
	}
}

func TestExpand_CancelledBetweenRules(t *testing.T) {
	store := &mockReservationStore{}
	svc := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Expand(ctx, []model.RecurrenceRule{mondayRule()})
	if err == nil {
		t.Fatal("cancelled expansion reported success")
	}
	if summary.Created != 0 {
		t.Errorf("cancelled run created %d reservations before the first rule", summary.Created)
	}
}
