package service

import (
	"context"
	"testing"
	"time"

	"labreserve/internal/reservations/repository"
	"labreserve/internal/reservations/validator"
	"labreserve/pkg/config"
	mongotx "labreserve/pkg/db/mongo"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repository for testing
type mockReservationRepository struct {
	createFunc                  func(ctx context.Context, r *model.Reservation) error
	findByIDFunc                func(ctx context.Context, id string) (*model.Reservation, error)
	findAllFunc                 func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
	countFunc                   func(ctx context.Context) (int64, error)
	updateClassificationFunc    func(ctx context.Context, id string, schoolID string, description string) error
	updateStatusFunc            func(ctx context.Context, id string, from string, to string, stamp repository.StatusStamp) (*mongo.UpdateResult, error)
	findActiveByLabAndRangeFunc func(ctx context.Context, labID string, start, end time.Time) ([]model.Reservation, error)
	findActiveByLabAndStartFunc func(ctx context.Context, labID string, start time.Time) (*model.Reservation, error)
	findForStatusFunc           func(ctx context.Context, labID string, now time.Time) ([]model.Reservation, error)
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "65b2f0a1c4d5e6f7a8b9c0d1"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockReservationRepository) UpdateClassification(ctx context.Context, id string, schoolID string, description string) error {
	if m.updateClassificationFunc != nil {
		return m.updateClassificationFunc(ctx, id, schoolID, description)
	}
	return nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, from string, to string, stamp repository.StatusStamp) (*mongo.UpdateResult, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, stamp)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockReservationRepository) FindActiveByLabAndRange(ctx context.Context, labID string, start, end time.Time) ([]model.Reservation, error) {
	if m.findActiveByLabAndRangeFunc != nil {
		return m.findActiveByLabAndRangeFunc(ctx, labID, start, end)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindActiveByLabAndStart(ctx context.Context, labID string, start time.Time) (*model.Reservation, error) {
	if m.findActiveByLabAndStartFunc != nil {
		return m.findActiveByLabAndStartFunc(ctx, labID, start)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindForStatus(ctx context.Context, labID string, now time.Time) ([]model.Reservation, error) {
	if m.findForStatusFunc != nil {
		return m.findForStatusFunc(ctx, labID, now)
	}
	return nil, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatJSON,
		Service: "test",
	})
	return &config.Config{
		Log:             log,
		ProfessorMarker: "Profesor: ",
		SystemActor:     model.Actor{ID: "system-admin", DisplayName: "Administración de Laboratorios"},
	}
}

func newTestService(repo *mockReservationRepository, locks *mockLockRepository, now time.Time) *reservationService {
	cfg := testConfig()
	return &reservationService{
		repo:      repo,
		lockRepo:  locks,
		validator: validator.NewReservationValidator(cfg.Log),
		publisher: nil,
		cfg:       cfg,
		now:       func() time.Time { return now },
	}
}

func ts(hour, min int) time.Time {
	return time.Date(2025, 9, 15, hour, min, 0, 0, time.UTC)
}

func validReservation(start, end time.Time) *model.Reservation {
	return &model.Reservation{
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: start,
		EndTime:   end,
		Subject:   "Robotics workshop",
		Type:      model.TypeEvent,
	}
}

func TestCreate_TouchingBoundaryAccepted(t *testing.T) {
	existing := model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d2",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(9, 0),
		EndTime:   ts(10, 0),
		Status:    model.StatusConfirmed,
	}

	repo := &mockReservationRepository{
		findActiveByLabAndRangeFunc: func(ctx context.Context, labID string, start, end time.Time) ([]model.Reservation, error) {
			return []model.Reservation{existing}, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(8, 0))

	// Starts exactly when the existing one ends: no overlap under half-open
	// semantics.
	err := svc.Create(context.Background(), validReservation(ts(10, 0), ts(11, 0)))
	if err != nil {
		t.Fatalf("back-to-back reservation rejected: %v", err)
	}
}

func TestCreate_OverlapRejectedWithConflict(t *testing.T) {
	existing := model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d2",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(9, 0),
		EndTime:   ts(10, 0),
		Status:    model.StatusConfirmed,
	}

	repo := &mockReservationRepository{
		findActiveByLabAndRangeFunc: func(ctx context.Context, labID string, start, end time.Time) ([]model.Reservation, error) {
			return []model.Reservation{existing}, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(8, 0))

	err := svc.Create(context.Background(), validReservation(ts(9, 30), ts(10, 30)))
	if err == nil {
		t.Fatal("overlapping reservation accepted")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("error code = %v, want CONFLICT", err)
	}
}

func TestCreate_InvalidIntervalRejected(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockLockRepository{}, ts(8, 0))

	err := svc.Create(context.Background(), validReservation(ts(10, 0), ts(10, 0)))
	if err == nil {
		t.Fatal("empty interval accepted")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInterval {
		t.Errorf("error code = %v, want INVALID_INTERVAL", err)
	}
}

func TestCreate_SlotLockContention(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}

	svc := newTestService(&mockReservationRepository{}, locks, ts(8, 0))

	err := svc.Create(context.Background(), validReservation(ts(10, 0), ts(11, 0)))
	if err == nil {
		t.Fatal("expected lock contention to fail the booking")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("error code = %v, want CONFLICT", err)
	}
}

func TestCheckIn_FromConfirmed(t *testing.T) {
	stored := &model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d3",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(9, 0),
		EndTime:   ts(10, 0),
		Status:    model.StatusConfirmed,
	}

	var capturedStamp repository.StatusStamp
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return stored, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from string, to string, stamp repository.StatusStamp) (*mongo.UpdateResult, error) {
			if from != model.StatusConfirmed || to != model.StatusOccupied {
				t.Errorf("transition %s -> %s, want CONFIRMED -> OCCUPIED", from, to)
			}
			capturedStamp = stamp
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 5))

	if _, err := svc.CheckIn(context.Background(), stored.ID); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if capturedStamp.Field != "check_in_time" {
		t.Errorf("stamp field = %q, want check_in_time", capturedStamp.Field)
	}
}

func TestCheckIn_DoubleCheckInRejected(t *testing.T) {
	stored := &model.Reservation{
		ID:     "65b2f0a1c4d5e6f7a8b9c0d3",
		LabID:  "65b2f0a1c4d5e6f7a8b9c0aa",
		Status: model.StatusOccupied,
	}

	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return stored, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 5))

	_, err := svc.CheckIn(context.Background(), stored.ID)
	if err == nil {
		t.Fatal("second check-in accepted")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %v, want INVALID_TRANSITION", err)
	}
}

func TestCheckIn_BlockedWhilePriorOverdue(t *testing.T) {
	overdue := model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d9",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(8, 0),
		EndTime:   ts(9, 0),
		Status:    model.StatusOccupied,
	}
	next := &model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d3",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(9, 0),
		EndTime:   ts(10, 0),
		Status:    model.StatusConfirmed,
	}

	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return next, nil
		},
		findForStatusFunc: func(ctx context.Context, labID string, now time.Time) ([]model.Reservation, error) {
			return []model.Reservation{overdue, *next}, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 30))

	_, err := svc.CheckIn(context.Background(), next.ID)
	if err == nil {
		t.Fatal("check-in allowed while prior reservation is overdue")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("error code = %v, want CONFLICT", err)
	}
}

func TestCheckOut_FromOccupied(t *testing.T) {
	stored := &model.Reservation{
		ID:        "65b2f0a1c4d5e6f7a8b9c0d3",
		LabID:     "65b2f0a1c4d5e6f7a8b9c0aa",
		StartTime: ts(9, 0),
		EndTime:   ts(10, 0),
		Status:    model.StatusOccupied,
	}

	var capturedStamp repository.StatusStamp
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return stored, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from string, to string, stamp repository.StatusStamp) (*mongo.UpdateResult, error) {
			if from != model.StatusOccupied || to != model.StatusCompleted {
				t.Errorf("transition %s -> %s, want OCCUPIED -> COMPLETED", from, to)
			}
			capturedStamp = stamp
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}

	// 10:30: the reservation is overdue, check-out must still work.
	svc := newTestService(repo, &mockLockRepository{}, ts(10, 30))

	if _, err := svc.CheckOut(context.Background(), stored.ID); err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if capturedStamp.Field != "check_out_time" {
		t.Errorf("stamp field = %q, want check_out_time", capturedStamp.Field)
	}
}

func TestCheckOut_FromConfirmedRejected(t *testing.T) {
	stored := &model.Reservation{
		ID:     "65b2f0a1c4d5e6f7a8b9c0d3",
		Status: model.StatusConfirmed,
	}

	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return stored, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 30))

	_, err := svc.CheckOut(context.Background(), stored.ID)
	if err == nil {
		t.Fatal("check-out from CONFIRMED accepted")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %v, want INVALID_TRANSITION", err)
	}
}

func TestCancel_FromCompletedRejected(t *testing.T) {
	stored := &model.Reservation{
		ID:     "65b2f0a1c4d5e6f7a8b9c0d3",
		Status: model.StatusCompleted,
	}

	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return stored, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 30))

	_, err := svc.Cancel(context.Background(), stored.ID)
	if err == nil {
		t.Fatal("cancelling a completed reservation accepted")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %v, want INVALID_TRANSITION", err)
	}
}

func TestTransition_LostRace(t *testing.T) {
	confirmed := &model.Reservation{
		ID:     "65b2f0a1c4d5e6f7a8b9c0d3",
		Status: model.StatusConfirmed,
	}
	occupied := &model.Reservation{
		ID:     "65b2f0a1c4d5e6f7a8b9c0d3",
		Status: model.StatusOccupied,
	}

	reads := 0
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			reads++
			if reads == 1 {
				return confirmed, nil
			}
			return occupied, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from string, to string, stamp repository.StatusStamp) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}

	svc := newTestService(repo, &mockLockRepository{}, ts(9, 5))

	_, err := svc.CheckIn(context.Background(), confirmed.ID)
	if err == nil {
		t.Fatal("lost compare-and-set race not reported")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %v, want INVALID_TRANSITION", err)
	}
}
