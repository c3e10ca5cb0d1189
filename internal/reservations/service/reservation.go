package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"labreserve/internal/events"
	"labreserve/internal/occupancy"
	reservationserrors "labreserve/internal/reservations/errors"
	"labreserve/internal/reservations/repository"
	"labreserve/internal/reservations/validator"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/model"
	"labreserve/pkg/sanitizer"
	"labreserve/pkg/timeutil"

	"go.mongodb.org/mongo-driver/mongo"
)

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	CheckIn(ctx context.Context, id string) (*model.Reservation, error)
	CheckOut(ctx context.Context, id string) (*model.Reservation, error)
	Cancel(ctx context.Context, id string) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.ReservationLockRepository
	validator *validator.ReservationValidator
	publisher *events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	validator *validator.ReservationValidator,
	publisher *events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create books an ad-hoc reservation. The overlap check and the insert run
// inside one transaction, behind an advisory slot lock, so two racing
// requests for the same interval cannot both pass the check.
func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	s.applyDefaults(reservation)
	s.sanitize(reservation)
	if err := s.validate(reservation); err != nil {
		return err
	}

	lockID, err := s.acquireSlotLock(ctx, reservation.LabID, reservation.StartTime)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, reservation); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			if errors.Is(err, reservationserrors.ErrTimeConflict) {
				return apperrors.Conflict("A reservation already starts at this time for this lab")
			}
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"lab_id", reservation.LabID,
		"start_time", reservation.StartTime,
		"type", reservation.Type,
	)
	s.publisher.Created(ctx, reservation)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// CheckIn hands the lab key over: CONFIRMED -> OCCUPIED with a check-in
// timestamp. Refused while a prior reservation on the same lab is overdue,
// since the key has not come back yet.
func (s *reservationService) CheckIn(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.Status != model.StatusConfirmed {
		return nil, apperrors.InvalidTransition(
			"Check-in is only allowed for confirmed reservations",
			map[string]any{"status": reservation.Status},
		)
	}

	now := s.now()
	if err := s.verifyNoOverdue(ctx, reservation, now); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, reservation,
		model.StatusConfirmed, model.StatusOccupied,
		repository.StatusStamp{Field: "check_in_time", At: now},
	)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation checked in", "id", id, "lab_id", updated.LabID)
	s.publisher.CheckedIn(ctx, updated)
	return updated, nil
}

// CheckOut returns the key: OCCUPIED -> COMPLETED with a check-out timestamp.
// An overdue reservation is still OCCUPIED, so checking it out late works.
func (s *reservationService) CheckOut(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.Status != model.StatusOccupied {
		return nil, apperrors.InvalidTransition(
			"Check-out is only allowed for occupied reservations",
			map[string]any{"status": reservation.Status},
		)
	}

	updated, err := s.transition(ctx, reservation,
		model.StatusOccupied, model.StatusCompleted,
		repository.StatusStamp{Field: "check_out_time", At: s.now()},
	)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation checked out", "id", id, "lab_id", updated.LabID)
	s.publisher.CheckedOut(ctx, updated)
	return updated, nil
}

// Cancel marks the reservation CANCELLED. Legal from CONFIRMED or OCCUPIED;
// the record is kept, never deleted.
func (s *reservationService) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.Status != model.StatusConfirmed && reservation.Status != model.StatusOccupied {
		return nil, apperrors.InvalidTransition(
			"Only confirmed or occupied reservations can be cancelled",
			map[string]any{"status": reservation.Status},
		)
	}

	updated, err := s.transition(ctx, reservation,
		reservation.Status, model.StatusCancelled,
		repository.StatusStamp{},
	)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation cancelled", "id", id, "lab_id", updated.LabID)
	s.publisher.Cancelled(ctx, updated)
	return updated, nil
}

// --- Helpers ---

func (s *reservationService) applyDefaults(r *model.Reservation) {
	if r.Type == "" {
		r.Type = model.TypeEvent
	}
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
	if r.CreatedBy.ID == "" {
		r.CreatedBy = s.cfg.SystemActor
	}
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.Subject = sanitizer.NormalizeSubject(r.Subject)
	r.Description = sanitizer.TrimAndNormalize(r.Description)
}

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		if !reservation.EndTime.After(reservation.StartTime) {
			return apperrors.InvalidInterval("end_time must be strictly after start_time")
		}
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) mapLookupError(err error, id string) error {
	if errors.Is(err, reservationserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Reservation", id)
	}
	if errors.Is(err, reservationserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid reservation ID format")
	}
	return apperrors.Internal("Failed to retrieve reservation", err)
}

// verifyNoOverlap rejects the candidate when any non-cancelled reservation on
// the lab overlaps its half-open interval. Back-to-back reservations sharing
// a boundary instant are allowed.
func (s *reservationService) verifyNoOverlap(ctx context.Context, reservation *model.Reservation) error {
	existing, err := s.repo.FindActiveByLabAndRange(ctx, reservation.LabID, reservation.StartTime, reservation.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	for i := range existing {
		e := &existing[i]
		if e.ID == reservation.ID {
			continue
		}
		if timeutil.Overlaps(e.StartTime, e.EndTime, reservation.StartTime, reservation.EndTime) {
			return apperrors.Conflict(fmt.Sprintf(
				"Reservation overlaps with an existing reservation (%s - %s)",
				e.StartTime.Format(time.RFC3339),
				e.EndTime.Format(time.RFC3339),
			))
		}
	}
	return nil
}

// verifyNoOverdue blocks a check-in while an earlier reservation on the same
// lab still holds the key past its end time.
func (s *reservationService) verifyNoOverdue(ctx context.Context, reservation *model.Reservation, now time.Time) error {
	others, err := s.repo.FindForStatus(ctx, reservation.LabID, now)
	if err != nil {
		return apperrors.Internal("Failed to check lab occupancy", err)
	}

	snapshot := occupancy.Resolve(now, others, s.cfg.ProfessorMarker)
	if snapshot.Overdue != nil && snapshot.Overdue.ID != reservation.ID {
		return apperrors.Conflict(fmt.Sprintf(
			"Cannot check in: the key for this lab was not returned after the reservation ending at %s",
			snapshot.Overdue.EndTime.Format(time.RFC3339),
		))
	}
	return nil
}

// transition performs a compare-and-set status update and re-reads the
// document. A lost race (someone moved the status first) surfaces as an
// invalid transition.
func (s *reservationService) transition(ctx context.Context, reservation *model.Reservation, from, to string, stamp repository.StatusStamp) (*model.Reservation, error) {
	result, err := s.repo.UpdateStatus(ctx, reservation.ID, from, to, stamp)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to update reservation status", err)
	}

	if result.MatchedCount == 0 {
		current, readErr := s.repo.FindByID(ctx, reservation.ID)
		if readErr != nil {
			return nil, s.mapLookupError(readErr, reservation.ID)
		}
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("Reservation is no longer %s", from),
			map[string]any{"status": current.Status},
		)
	}

	updated, err := s.repo.FindByID(ctx, reservation.ID)
	if err != nil {
		return nil, s.mapLookupError(err, reservation.ID)
	}
	return updated, nil
}

func (s *reservationService) acquireSlotLock(ctx context.Context, labID string, startTime time.Time) (string, error) {
	lockID := fmt.Sprintf("reservation_lock_%s_%d", labID, startTime.Unix())

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
