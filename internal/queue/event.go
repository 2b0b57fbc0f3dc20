// Package queue defines message payloads exchanged over the message broker.
package queue

// EnrollmentConfirmedEvent is published when a coordinator confirms an
// enrollment. It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type EnrollmentConfirmedEvent struct {
	EnrollmentID uint64 `json:"enrollment_id"`
	UserID       uint64 `json:"user_id"`
	CourseID     uint64 `json:"course_id"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	ConfirmedAt  string `json:"confirmed_at"`
}
