package model

import "time"

// EnrollmentStatus enumerates the lifecycle states of an enrollment.
// Pending is the state every new enrollment is created in; a coordinator
// later confirms or cancels it.  Cancelled is terminal.
type EnrollmentStatus string

const (
	StatusPending   EnrollmentStatus = "PENDING"
	StatusConfirmed EnrollmentStatus = "CONFIRMED"
	StatusCancelled EnrollmentStatus = "CANCELLED"
)

// OccupiesSeat reports whether an enrollment in this state counts
// against its course's capacity.  Pending already holds the seat while
// it waits for coordinator review; only cancellation releases it.
func (s EnrollmentStatus) OccupiesSeat() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether the state machine permits moving from
// s to target.  Allowed: Pending→Confirmed, Pending→Cancelled,
// Confirmed→Cancelled.  Everything else is rejected.
func (s EnrollmentStatus) CanTransitionTo(target EnrollmentStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusCancelled
	}
	return false
}

// Enrollment records a user's claim on a course seat.  Among
// non-cancelled rows a user holds at most one enrollment per course; a
// cancelled enrollment does not block re-enrolling.  Rows are never
// physically deleted so the audit trail stays intact.
//
// Fields:
//  ID           – primary key identifier.
//  CourseID     – course being enrolled in.
//  UserID       – user holding the seat.
//  Status       – lifecycle state (PENDING, CONFIRMED, CANCELLED).
//  RegisteredAt – when the enrollment request was admitted.
type Enrollment struct {
	ID           uint64           // enrollments.id
	CourseID     uint64           // enrollments.course_id
	UserID       uint64           // enrollments.user_id
	Status       EnrollmentStatus // enrollments.status
	RegisteredAt time.Time        // enrollments.registered_at
}
