// Package courseadmin implements the coordinator-facing course
// administration operations: creating, editing and activating courses.
// Every successful mutation invalidates the catalog cache so readers
// never serve a snapshot of a retired shape of the catalog.
package courseadmin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// CourseStore is the slice of the course repository the service needs.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	SetActive(ctx context.Context, id uint64, active bool) error
	GetByID(ctx context.Context, id uint64) (*model.Course, error)
	CodeExists(ctx context.Context, code string, excludeID uint64) (bool, error)
}

// CacheInvalidator drops the active-courses snapshot. The enrollment
// engine satisfies it.
type CacheInvalidator interface {
	InvalidateCatalogCache(ctx context.Context)
}

// ErrNotFound is returned when the targeted course does not exist.
var ErrNotFound = errors.New("course not found")

// ValidationError carries the first field-level rule the submitted
// course data broke.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CourseSpec is the submitted course data for a create or edit.
type CourseSpec struct {
	Code     string
	Name     string
	Credits  int
	Capacity int
	StartsAt model.ClockTime
	EndsAt   model.ClockTime
}

// Service validates and applies course mutations.
type Service struct {
	courses CourseStore
	cache   CacheInvalidator
}

// New constructs the course administration service.
func New(courses CourseStore, cache CacheInvalidator) *Service {
	if courses == nil || cache == nil {
		panic("nil dependency passed to courseadmin.New")
	}
	return &Service{courses: courses, cache: cache}
}

func validate(spec CourseSpec) error {
	if strings.TrimSpace(spec.Code) == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if len(spec.Code) > model.MaxCodeLen {
		return &ValidationError{Field: "code", Reason: fmt.Sprintf("must be at most %d characters", model.MaxCodeLen)}
	}
	if strings.TrimSpace(spec.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(spec.Name) > model.MaxNameLen {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", model.MaxNameLen)}
	}
	if spec.Credits < model.MinCredits || spec.Credits > model.MaxCredits {
		return &ValidationError{Field: "credits", Reason: fmt.Sprintf("must be between %d and %d", model.MinCredits, model.MaxCredits)}
	}
	if spec.Capacity < model.MinCapacity || spec.Capacity > model.MaxCapacity {
		return &ValidationError{Field: "capacity", Reason: fmt.Sprintf("must be between %d and %d", model.MinCapacity, model.MaxCapacity)}
	}
	if !spec.StartsAt.Valid() || !spec.EndsAt.Valid() {
		return &ValidationError{Field: "schedule", Reason: "times must fall within a single day"}
	}
	if spec.StartsAt >= spec.EndsAt {
		return &ValidationError{Field: "schedule", Reason: "start time must be before end time"}
	}
	return nil
}

// CreateCourse validates spec, rejects duplicate codes and inserts the
// course as active.
func (s *Service) CreateCourse(ctx context.Context, spec CourseSpec) (*model.Course, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	taken, err := s.courses.CodeExists(ctx, spec.Code, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Field: "code", Reason: "already in use"}
	}

	c := &model.Course{
		Code:     spec.Code,
		Name:     spec.Name,
		Credits:  spec.Credits,
		Capacity: spec.Capacity,
		StartsAt: spec.StartsAt,
		EndsAt:   spec.EndsAt,
		Active:   true,
	}
	if err := s.courses.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, &ValidationError{Field: "code", Reason: "already in use"}
		}
		return nil, err
	}
	s.cache.InvalidateCatalogCache(ctx)
	return c, nil
}

// EditCourse validates spec and applies it to an existing course. The
// code uniqueness check excludes the course itself so an edit that
// keeps the code untouched always passes.
func (s *Service) EditCourse(ctx context.Context, id uint64, spec CourseSpec) (*model.Course, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	taken, err := s.courses.CodeExists(ctx, spec.Code, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Field: "code", Reason: "already in use"}
	}

	c.Code = spec.Code
	c.Name = spec.Name
	c.Credits = spec.Credits
	c.Capacity = spec.Capacity
	c.StartsAt = spec.StartsAt
	c.EndsAt = spec.EndsAt
	if err := s.courses.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, &ValidationError{Field: "code", Reason: "already in use"}
		}
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.InvalidateCatalogCache(ctx)
	return c, nil
}

// SetActive publishes or retires a course. Retiring keeps existing
// enrollments intact; it only stops the course from accepting new ones
// and drops it from the catalog.
func (s *Service) SetActive(ctx context.Context, id uint64, active bool) (*model.Course, error) {
	if err := s.courses.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.InvalidateCatalogCache(ctx)
	return s.courses.GetByID(ctx, id)
}
