// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// enrollment engine and handlers to distinguish between failure
// scenarios without inspecting driver-specific errors. For example,
// ErrCapacityExceeded signals that a conditional insert found the
// course full, while ErrCodeExists maps the MySQL duplicate-key error
// for the unique course code.
package repository

import "errors"

// ErrCourseNotFound is returned when no course row matches the given
// identifier or code.
var ErrCourseNotFound = errors.New("course not found")

// ErrEnrollmentNotFound is returned when no enrollment row matches the
// given identifier.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// ErrCodeExists is returned when an insert or update would violate the
// unique constraint on courses.code.
var ErrCodeExists = errors.New("course code already exists")

// ErrCapacityExceeded is returned by the conditional enrollment insert
// when the course already holds as many active enrollments as its
// capacity allows.
var ErrCapacityExceeded = errors.New("course capacity exceeded")

// ErrAlreadyEnrolled is returned when the user already holds a
// non-cancelled enrollment for the course.
var ErrAlreadyEnrolled = errors.New("user already enrolled in course")
