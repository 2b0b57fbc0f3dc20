package enrollment

import (
	"errors"
	"fmt"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// Sentinel errors for the distinct admission failure modes. Handlers
// match these with errors.Is and map each to a single human-readable
// message; anything else is treated as an internal error.
var (
	// ErrCourseUnavailable covers both a missing and an inactive course.
	ErrCourseUnavailable = errors.New("course does not exist or is not available")

	// ErrAlreadyEnrolled means the user holds a non-cancelled enrollment
	// for this course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")

	// ErrCapacityExceeded means the course has no seats left, either at
	// the fresh pre-check or after losing an admission race.
	ErrCapacityExceeded = errors.New("course has reached its maximum capacity")

	// ErrNotFound means the referenced enrollment id is unknown.
	ErrNotFound = errors.New("enrollment not found")
)

// ScheduleConflictError rejects an admission whose course overlaps one
// of the user's existing active enrollments. It carries the conflicting
// course so callers can tell the user which one.
type ScheduleConflictError struct {
	Conflicting model.Course
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with course %s - %s (%s to %s)",
		e.Conflicting.Code, e.Conflicting.Name,
		e.Conflicting.StartsAt, e.Conflicting.EndsAt)
}
