package service

import (
	"context"
	"errors"
	"sync"
	"time"

	labserrors "labreserve/internal/labs/errors"
	"labreserve/internal/labs/repository"
	"labreserve/internal/labs/validator"
	"labreserve/internal/occupancy"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/model"
	"labreserve/pkg/sanitizer"
	"labreserve/pkg/timeutil"
)

// ReservationSource is the slice of the reservation repository the lab
// service reads and seeds. Satisfied by the reservations repository.
type ReservationSource interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindActiveByLabAndRange(ctx context.Context, labID string, start, end time.Time) ([]model.Reservation, error)
	FindActiveByLabAndStart(ctx context.Context, labID string, start time.Time) (*model.Reservation, error)
	FindForStatus(ctx context.Context, labID string, now time.Time) ([]model.Reservation, error)
}

// AvailabilityRequest describes an ad-hoc search for a bookable lab.
type AvailabilityRequest struct {
	Start       time.Time
	End         time.Time
	MinCapacity int
	Software    []string
}

// DayTimeline is one lab's rendered day: the gapless slot sequence plus the
// coalesced free ranges.
type DayTimeline struct {
	LabID      string               `json:"lab_id"`
	Date       string               `json:"date"`
	Slots      []model.TimelineSlot `json:"slots"`
	FreeRanges []model.FreeRange    `json:"free_ranges"`
}

type LabService interface {
	Create(ctx context.Context, lab *model.Lab) error
	GetByID(ctx context.Context, id string) (*model.Lab, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Lab, int64, error)
	Update(ctx context.Context, id string, updates *model.LabUpdate) error
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, labID string, asOf time.Time) (*model.StatusSnapshot, error)
	Timeline(ctx context.Context, labID string, date time.Time) (*DayTimeline, error)
	FindAvailable(ctx context.Context, req AvailabilityRequest) ([]*model.Lab, error)
}

type labService struct {
	repo         repository.LabRepository
	reservations ReservationSource
	validator    *validator.LabValidator
	cfg          *config.Config
}

func NewLabService(
	repo repository.LabRepository,
	reservations ReservationSource,
	validator *validator.LabValidator,
	cfg *config.Config,
) LabService {
	return &labService{
		repo:         repo,
		reservations: reservations,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *labService) Create(ctx context.Context, lab *model.Lab) error {
	s.sanitize(lab)
	if err := s.validate(lab); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, lab); err != nil {
		if errors.Is(err, labserrors.ErrDuplicateName) {
			return apperrors.Conflict("A lab with this name already exists")
		}
		s.cfg.Log.Error("Failed to create lab", "name", lab.Name, "error", err)
		return apperrors.Internal("Failed to create lab", err)
	}

	s.cfg.Log.Info("Lab created successfully", "id", lab.ID, "name", lab.Name)

	if lab.Permanent {
		if err := s.ensurePermanentReservation(ctx, lab); err != nil {
			s.cfg.Log.Warn("Failed to seed permanent reservation", "lab_id", lab.ID, "error", err)
		}
	}
	return nil
}

func (s *labService) GetByID(ctx context.Context, id string) (*model.Lab, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Lab ID cannot be empty")
	}

	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return lab, nil
}

func (s *labService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Lab, int64, error) {
	var count int64
	var labs []*model.Lab
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count labs", "error", errCount)
			errCount = apperrors.Internal("Failed to count labs", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		labs, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list labs", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve labs", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return labs, count, nil
}

func (s *labService) Update(ctx context.Context, id string, updates *model.LabUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Lab ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Lab update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeLabUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, labserrors.ErrDuplicateName) {
			return apperrors.Conflict("A lab with this name already exists")
		}
		if errors.Is(err, labserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Lab", id)
		}
		s.cfg.Log.Error("Failed to update lab", "id", id, "error", err)
		return apperrors.Internal("Failed to update lab", err)
	}

	s.cfg.Log.Info("Lab updated successfully", "id", id)

	if !existing.Permanent && merged.Permanent {
		merged.ID = id
		if err := s.ensurePermanentReservation(ctx, merged); err != nil {
			s.cfg.Log.Warn("Failed to seed permanent reservation", "lab_id", id, "error", err)
		}
	}
	return nil
}

func (s *labService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Lab ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, labserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Lab", id)
		}
		if errors.Is(err, labserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid lab ID format")
		}
		return apperrors.Internal("Failed to delete lab", err)
	}

	s.cfg.Log.Info("Lab deleted successfully", "id", id)
	return nil
}

// Status classifies the lab at the given instant. The reservation set is
// fetched once and handed to the pure resolver.
func (s *labService) Status(ctx context.Context, labID string, asOf time.Time) (*model.StatusSnapshot, error) {
	if _, err := s.GetByID(ctx, labID); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.FindForStatus(ctx, labID, asOf)
	if err != nil {
		s.cfg.Log.Error("Failed to load reservations for status", "lab_id", labID, "error", err)
		return nil, apperrors.Internal("Failed to resolve lab status", err)
	}

	snapshot := occupancy.Resolve(asOf, reservations, s.cfg.ProfessorMarker)
	return &snapshot, nil
}

// Timeline renders the lab's day inside the configured display window.
func (s *labService) Timeline(ctx context.Context, labID string, date time.Time) (*DayTimeline, error) {
	if _, err := s.GetByID(ctx, labID); err != nil {
		return nil, err
	}

	dayStart, dayEnd := timeutil.DayBounds(date, s.cfg.Location)
	reservations, err := s.reservations.FindActiveByLabAndRange(ctx, labID, dayStart, dayEnd)
	if err != nil {
		s.cfg.Log.Error("Failed to load reservations for timeline", "lab_id", labID, "error", err)
		return nil, apperrors.Internal("Failed to build lab timeline", err)
	}

	windowStart := s.cfg.DisplayDayStart.At(date, s.cfg.Location)
	windowEnd := s.cfg.DisplayDayEnd.At(date, s.cfg.Location)
	boundary := s.cfg.SplitBoundary.At(date, s.cfg.Location)

	slots := occupancy.BuildTimeline(reservations, windowStart, windowEnd, boundary)

	return &DayTimeline{
		LabID:      labID,
		Date:       date.In(s.cfg.Location).Format("2006-01-02"),
		Slots:      slots,
		FreeRanges: occupancy.CoalesceFree(slots),
	}, nil
}

// FindAvailable returns every non-permanent lab that can host the requested
// interval: enough capacity, required software installed, and no overlapping
// reservation.
func (s *labService) FindAvailable(ctx context.Context, req AvailabilityRequest) ([]*model.Lab, error) {
	if !req.Start.Before(req.End) {
		return nil, apperrors.InvalidInterval("end must be strictly after start")
	}

	software := sanitizer.NormalizeSoftwareList(req.Software)

	candidates, err := s.repo.FindCandidates(ctx, req.MinCapacity, false)
	if err != nil {
		s.cfg.Log.Error("Failed to load candidate labs", "error", err)
		return nil, apperrors.Internal("Failed to search available labs", err)
	}

	available := make([]*model.Lab, 0, len(candidates))
	for _, lab := range candidates {
		if !lab.HasSoftware(software) {
			continue
		}

		existing, err := s.reservations.FindActiveByLabAndRange(ctx, lab.ID, req.Start, req.End)
		if err != nil {
			s.cfg.Log.Error("Failed to check lab occupancy", "lab_id", lab.ID, "error", err)
			return nil, apperrors.Internal("Failed to search available labs", err)
		}

		free := true
		for i := range existing {
			if timeutil.Overlaps(existing[i].StartTime, existing[i].EndTime, req.Start, req.End) {
				free = false
				break
			}
		}
		if free {
			available = append(available, lab)
		}
	}

	return available, nil
}

// --- Helpers ---

func (s *labService) sanitize(lab *model.Lab) {
	lab.Name = sanitizer.NormalizeLabName(lab.Name)
	lab.Description = sanitizer.TrimAndNormalize(lab.Description)
	lab.Software = sanitizer.NormalizeSoftwareList(lab.Software)
}

func (s *labService) validate(lab *model.Lab) error {
	if err := s.validator.Validate(lab); err != nil {
		s.cfg.Log.Warn("Lab validation failed", "error", err)
		return apperrors.Validation("Lab validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *labService) mapLookupError(err error, id string) error {
	if errors.Is(err, labserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Lab", id)
	}
	if errors.Is(err, labserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid lab ID format")
	}
	return apperrors.Internal("Failed to retrieve lab", err)
}

func (s *labService) mergeLabUpdates(existing *model.Lab, updates *model.LabUpdate) *model.Lab {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Permanent != nil {
		merged.Permanent = *updates.Permanent
	}
	if updates.Software != nil {
		merged.Software = *updates.Software
	}

	return &merged
}

// ensurePermanentReservation blocks a permanent lab for the whole semester
// with a single sentinel reservation. Idempotent on the exact start instant.
func (s *labService) ensurePermanentReservation(ctx context.Context, lab *model.Lab) error {
	start, _ := timeutil.DayBounds(s.cfg.SemesterStart, s.cfg.Location)
	_, end := timeutil.DayBounds(s.cfg.SemesterEnd, s.cfg.Location)

	existing, err := s.reservations.FindActiveByLabAndStart(ctx, lab.ID, start)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	reservation := &model.Reservation{
		LabID:       lab.ID,
		StartTime:   start,
		EndTime:     end,
		Subject:     config.PermanentReservationNote,
		Description: config.PermanentReservationNote,
		Type:        model.TypeEvent,
		Status:      model.StatusOccupied,
		CreatedBy:   s.cfg.SystemActor,
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return err
	}

	s.cfg.Log.Info("Permanent reservation seeded", "lab_id", lab.ID, "start", start, "end", end)
	return nil
}
