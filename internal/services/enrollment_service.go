package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.Publisher
	guard     guard
}

func NewEnrollmentService(repo repositories.Repository, logger *slog.Logger, publisher events.Publisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		guard:     newGuard(),
	}
}

func (s *enrollmentService) SetEnrollment(ctx context.Context, actor *access.Actor, studentID uint, courseIDs json.RawMessage) (*EnrollmentResponse, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.On(access.KindEnrollment)); err != nil {
		return nil, err
	}

	requested, err := parseCourseIDs(courseIDs)
	if err != nil {
		return nil, err
	}

	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("student: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student.Role != models.RoleStudent {
		return nil, fmt.Errorf("student: %w", ErrNotFound)
	}

	var (
		profileID uint
		stored    []uint
	)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.Course().ExistingIDs(ctx, requested)
		if err != nil {
			return fmt.Errorf("failed to resolve courses: %w", err)
		}
		profile, err := tx.User().EnsureProfile(ctx, student.ID)
		if err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}
		kept := keepRequested(requested, existing)
		if err := tx.Enrollment().Replace(ctx, profile.ID, kept); err != nil {
			return fmt.Errorf("failed to replace enrollment: %w", err)
		}
		profileID = profile.ID
		stored = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = []uint{}
	}

	s.logger.Info("Enrollment replaced",
		"student_id", student.ID,
		"profile_id", profileID,
		"course_count", len(stored),
		"actor_id", actor.ID)

	events.PublishSafe(ctx, s.publisher, s.logger, events.TopicEnrollmentUpdated, events.EnrollmentUpdated{
		StudentID: student.ID,
		ProfileID: profileID,
		CourseIDs: stored,
		ActorID:   actor.ID,
	})

	return &EnrollmentResponse{Status: "ok", StudentID: student.ID, CourseIDs: stored}, nil
}

// parseCourseIDs accepts only a JSON array of non-negative integers and
// returns it without duplicates, keeping first-seen order.
func parseCourseIDs(raw json.RawMessage) ([]uint, error) {
	badRequest := func() error {
		return fmt.Errorf("%w: %w", ErrBadRequest,
			validator.Field("course_ids", "course_ids must be a list of course ids", "list"))
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, badRequest()
	}
	var ids []uint
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return nil, badRequest()
	}

	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique, nil
}

// keepRequested filters requested down to the ids in existing, in the order
// the caller gave them.
func keepRequested(requested, existing []uint) []uint {
	found := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	kept := make([]uint, 0, len(existing))
	for _, id := range requested {
		if _, ok := found[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept
}
