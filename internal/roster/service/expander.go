package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"labreserve/pkg/classify"
	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
	"labreserve/pkg/model"
	"labreserve/pkg/sanitizer"
	"labreserve/pkg/timeutil"
)

// Skip codes reported per rule in the import summary.
const (
	SkipUnknownWeekday  = "UNKNOWN_WEEKDAY"
	SkipInvalidTime     = "INVALID_TIME"
	SkipInvalidInterval = "INVALID_INTERVAL"
	SkipLabNotFound     = "LAB_NOT_FOUND"
	SkipSchoolFailed    = "SCHOOL_RESOLUTION_FAILED"
	SkipWriteFailed     = "WRITE_FAILED"
)

// weekdays maps roster weekday tokens to Go weekdays. The roster source
// writes Spanish day names, with or without accents; English is accepted
// for hand-written imports.
var weekdays = map[string]time.Weekday{
	"LUNES":     time.Monday,
	"MARTES":    time.Tuesday,
	"MIERCOLES": time.Wednesday,
	"MIÉRCOLES": time.Wednesday,
	"JUEVES":    time.Thursday,
	"VIERNES":   time.Friday,
	"SABADO":    time.Saturday,
	"SÁBADO":    time.Saturday,
	"DOMINGO":   time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

// LabResolver resolves roster lab names to catalog entries.
type LabResolver interface {
	FindByName(ctx context.Context, name string) (*model.Lab, error)
}

// SchoolResolver maps school codes to stored schools, creating placeholders
// for unseen codes.
type SchoolResolver interface {
	EnsureByCode(ctx context.Context, code string) (*model.School, error)
}

// ReservationStore is the slice of the reservation repository the expander
// writes through.
type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindActiveByLabAndStart(ctx context.Context, labID string, start time.Time) (*model.Reservation, error)
	UpdateClassification(ctx context.Context, id string, schoolID string, description string) error
}

type RosterService interface {
	Expand(ctx context.Context, rules []model.RecurrenceRule) (*model.ImportSummary, error)
	ExpandWindow(ctx context.Context, rules []model.RecurrenceRule, windowStart, windowEnd time.Time) (*model.ImportSummary, error)
}

type rosterService struct {
	labs         LabResolver
	schools      SchoolResolver
	reservations ReservationStore
	classifier   *classify.Classifier
	cfg          *config.Config
}

func NewRosterService(
	labs LabResolver,
	schools SchoolResolver,
	reservations ReservationStore,
	cfg *config.Config,
) RosterService {
	return &rosterService{
		labs:         labs,
		schools:      schools,
		reservations: reservations,
		classifier:   classify.New(cfg.SchoolRules, cfg.DefaultSchoolCode),
		cfg:          cfg,
	}
}

// Expand walks the semester window day by day for every rule and materializes
// dated CLASS reservations. A rule that cannot be applied is recorded in the
// summary and never aborts the batch; re-running with the same input creates
// nothing new (exact-start dedup). Cancellation is honored between rules so a
// partial run keeps what it already wrote.
func (s *rosterService) Expand(ctx context.Context, rules []model.RecurrenceRule) (*model.ImportSummary, error) {
	return s.ExpandWindow(ctx, rules, s.cfg.SemesterStart, s.cfg.SemesterEnd)
}

// ExpandWindow is Expand over an explicit date window, used when an import
// overrides the configured semester.
func (s *rosterService) ExpandWindow(ctx context.Context, rules []model.RecurrenceRule, windowStart, windowEnd time.Time) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{}

	if !windowStart.Before(windowEnd) {
		return summary, apperrors.InvalidInterval("Import window start must precede its end")
	}

	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			s.cfg.Log.Warn("Roster expansion cancelled",
				"processed_rules", i,
				"created", summary.Created,
				"updated", summary.Updated,
			)
			return summary, apperrors.Timeout("Roster expansion cancelled")
		}

		if skip := s.expandRule(ctx, i, rule, windowStart, windowEnd, summary); skip != nil {
			summary.Skipped = append(summary.Skipped, *skip)
			s.cfg.Log.Warn("Roster rule skipped",
				"index", i,
				"code", skip.Code,
				"reason", skip.Reason,
			)
		}
	}

	s.cfg.Log.Info("Roster expansion completed",
		"rules", len(rules),
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", len(summary.Skipped),
	)
	return summary, nil
}

func (s *rosterService) expandRule(ctx context.Context, index int, rule model.RecurrenceRule, windowStart, windowEnd time.Time, summary *model.ImportSummary) *model.SkippedRule {
	weekday, ok := weekdays[strings.ToUpper(sanitizer.TrimAndNormalize(rule.Weekday))]
	if !ok {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipUnknownWeekday,
			Reason: fmt.Sprintf("unknown weekday %q", rule.Weekday),
		}
	}

	startTod, err := timeutil.ParseTimeOfDay(rule.StartTime)
	if err != nil {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipInvalidTime,
			Reason: fmt.Sprintf("invalid start_time %q", rule.StartTime),
		}
	}
	endTod, err := timeutil.ParseTimeOfDay(rule.EndTime)
	if err != nil {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipInvalidTime,
			Reason: fmt.Sprintf("invalid end_time %q", rule.EndTime),
		}
	}
	if endTod.Minutes() <= startTod.Minutes() {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipInvalidInterval,
			Reason: "end_time must be strictly after start_time",
		}
	}

	lab, err := s.labs.FindByName(ctx, sanitizer.NormalizeLabName(rule.LabName))
	if err != nil {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipLabNotFound,
			Reason: fmt.Sprintf("lab %q not found", rule.LabName),
		}
	}

	schoolCode := rule.SchoolCode
	if schoolCode == "" {
		schoolCode = s.classifier.Classify(rule.Subject)
	}
	school, err := s.schools.EnsureByCode(ctx, schoolCode)
	if err != nil {
		return &model.SkippedRule{
			Index:  index,
			Code:   SkipSchoolFailed,
			Reason: fmt.Sprintf("could not resolve school %q: %v", schoolCode, err),
		}
	}

	subject := sanitizer.NormalizeSubject(rule.Subject)
	description := ""
	if professor := sanitizer.NormalizeName(rule.Professor); professor != "" {
		description = s.cfg.ProfessorMarker + professor
	}

	loc := s.cfg.Location
	for day := windowStart; !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != weekday {
			continue
		}

		start := startTod.At(day, loc)
		end := endTod.At(day, loc)

		existing, err := s.reservations.FindActiveByLabAndStart(ctx, lab.ID, start)
		if err != nil {
			return &model.SkippedRule{
				Index:  index,
				Code:   SkipWriteFailed,
				Reason: fmt.Sprintf("lookup failed at %s: %v", start.Format(time.RFC3339), err),
			}
		}

		if existing != nil {
			// Idempotent re-import: refresh classification in place.
			if err := s.reservations.UpdateClassification(ctx, existing.ID, school.ID, description); err != nil {
				return &model.SkippedRule{
					Index:  index,
					Code:   SkipWriteFailed,
					Reason: fmt.Sprintf("update failed at %s: %v", start.Format(time.RFC3339), err),
				}
			}
			summary.Updated++
			continue
		}

		reservation := &model.Reservation{
			LabID:       lab.ID,
			StartTime:   start,
			EndTime:     end,
			Subject:     subject,
			Description: description,
			Type:        model.TypeClass,
			Status:      model.StatusConfirmed,
			SchoolID:    school.ID,
			CreatedBy:   s.cfg.SystemActor,
		}
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return &model.SkippedRule{
				Index:  index,
				Code:   SkipWriteFailed,
				Reason: fmt.Sprintf("create failed at %s: %v", start.Format(time.RFC3339), err),
			}
		}
		summary.Created++
	}

	return nil
}
