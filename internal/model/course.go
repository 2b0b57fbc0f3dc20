package model

import "time"

// Course represents a schedulable offering with a fixed seat capacity
// and a daily time window.  Courses are created and edited by
// coordinators; they are never deleted, only deactivated, because
// historical enrollments keep referencing them.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – unique short code (at most 10 characters, e.g. "MAT101").
//  Name      – human readable course name.
//  Credits   – credit count, 1 to 10.
//  Capacity  – maximum number of seats, 1 to 200.
//  StartsAt  – time of day the course begins.
//  EndsAt    – time of day the course ends (must be after StartsAt).
//  Active    – whether the course is open for enrollment.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Course struct {
	ID        uint64    // courses.id
	Code      string    // courses.code
	Name      string    // courses.name
	Credits   int       // courses.credits
	Capacity  int       // courses.capacity
	StartsAt  ClockTime // courses.start_min
	EndsAt    ClockTime // courses.end_min
	Active    bool      // courses.active
	CreatedAt time.Time // courses.created_at
	UpdatedAt time.Time // courses.updated_at
}

// Course limits mirrored by the CHECK constraints on the courses table.
const (
	MaxCodeLen  = 10
	MaxNameLen  = 100
	MinCredits  = 1
	MaxCredits  = 10
	MinCapacity = 1
	MaxCapacity = 200
)

// ActiveEnrollmentCount returns how many of the given enrollments occupy
// a seat.  Pending and Confirmed both count; Cancelled never does.  The
// value is always derived from an enrollment list, never stored, so the
// occupancy the catalog shows can not drift from the authoritative rows.
func ActiveEnrollmentCount(enrollments []Enrollment) int {
	n := 0
	for _, e := range enrollments {
		if e.Status.OccupiesSeat() {
			n++
		}
	}
	return n
}

// AvailableSeats derives the remaining seat count for a course from an
// explicit enrollment list.
func AvailableSeats(capacity int, enrollments []Enrollment) int {
	return capacity - ActiveEnrollmentCount(enrollments)
}
