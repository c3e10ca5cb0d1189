package service

import (
	"context"
	"errors"

	schoolserrors "labreserve/internal/schools/errors"
	"labreserve/internal/schools/repository"
	"labreserve/internal/schools/validator"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/model"
	"labreserve/pkg/sanitizer"
)

// defaultColor is assigned to schools auto-created by the roster import.
const defaultColor = "#64748B"

type SchoolService interface {
	Create(ctx context.Context, school *model.School) error
	GetByID(ctx context.Context, id string) (*model.School, error)
	GetAll(ctx context.Context) ([]*model.School, error)
	Update(ctx context.Context, id string, updates *model.SchoolUpdate) error
	Delete(ctx context.Context, id string) error
	EnsureByCode(ctx context.Context, code string) (*model.School, error)
}

type schoolService struct {
	repo      repository.SchoolRepository
	validator *validator.SchoolValidator
	cfg       *config.Config
}

func NewSchoolService(
	repo repository.SchoolRepository,
	validator *validator.SchoolValidator,
	cfg *config.Config,
) SchoolService {
	return &schoolService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *schoolService) Create(ctx context.Context, school *model.School) error {
	s.sanitize(school)
	if err := s.validate(school); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, school); err != nil {
		if errors.Is(err, schoolserrors.ErrDuplicateCode) {
			return apperrors.Conflict("A school with this code already exists")
		}
		s.cfg.Log.Error("Failed to create school", "code", school.Code, "error", err)
		return apperrors.Internal("Failed to create school", err)
	}

	s.cfg.Log.Info("School created successfully", "id", school.ID, "code", school.Code)
	return nil
}

func (s *schoolService) GetByID(ctx context.Context, id string) (*model.School, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("School ID cannot be empty")
	}

	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return school, nil
}

func (s *schoolService) GetAll(ctx context.Context) ([]*model.School, error) {
	schools, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list schools", "error", err)
		return nil, apperrors.Internal("Failed to retrieve schools", err)
	}
	return schools, nil
}

func (s *schoolService) Update(ctx context.Context, id string, updates *model.SchoolUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("School ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("School update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}
	s.sanitize(&merged)
	if err := s.validate(&merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, schoolserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("School", id)
		}
		s.cfg.Log.Error("Failed to update school", "id", id, "error", err)
		return apperrors.Internal("Failed to update school", err)
	}

	s.cfg.Log.Info("School updated successfully", "id", id)
	return nil
}

func (s *schoolService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("School ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, schoolserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("School", id)
		}
		if errors.Is(err, schoolserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid school ID format")
		}
		return apperrors.Internal("Failed to delete school", err)
	}

	s.cfg.Log.Info("School deleted successfully", "id", id)
	return nil
}

// EnsureByCode resolves a school by its code, creating a placeholder record
// when the code is new. Used by the roster import so classification never
// fails on an unseen school.
func (s *schoolService) EnsureByCode(ctx context.Context, code string) (*model.School, error) {
	code = sanitizer.NormalizeSchoolCode(code)
	if code == "" {
		return nil, apperrors.InvalidInput("School code cannot be empty")
	}

	school, err := s.repo.FindByCode(ctx, code)
	if err == nil {
		return school, nil
	}
	if !errors.Is(err, schoolserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up school", err)
	}

	created := &model.School{
		Code:  code,
		Name:  code,
		Color: defaultColor,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		// Lost a creation race: someone inserted the code first.
		if errors.Is(err, schoolserrors.ErrDuplicateCode) {
			return s.repo.FindByCode(ctx, code)
		}
		return nil, apperrors.Internal("Failed to create school", err)
	}

	s.cfg.Log.Info("School auto-created from roster import", "code", code)
	return created, nil
}

// --- Helpers ---

func (s *schoolService) sanitize(school *model.School) {
	school.Code = sanitizer.NormalizeSchoolCode(school.Code)
	school.Name = sanitizer.NormalizeName(school.Name)
}

func (s *schoolService) validate(school *model.School) error {
	if err := s.validator.Validate(school); err != nil {
		s.cfg.Log.Warn("School validation failed", "error", err)
		return apperrors.Validation("School validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *schoolService) mapLookupError(err error, id string) error {
	if errors.Is(err, schoolserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("School", id)
	}
	if errors.Is(err, schoolserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid school ID format")
	}
	return apperrors.Internal("Failed to retrieve school", err)
}
