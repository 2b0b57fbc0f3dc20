package model

// CourseSnapshot is the denormalized course record served from the
// catalog and stored in the active-courses cache entry.  It carries the
// derived occupancy numbers computed at write time; relational data is
// never cached, only these flat fields.
type CourseSnapshot struct {
	ID                uint64 `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Credits           int    `json:"credits"`
	Capacity          int    `json:"capacity"`
	StartTime         string `json:"start_time"` // "HH:MM"
	EndTime           string `json:"end_time"`   // "HH:MM"
	Active            bool   `json:"active"`
	ActiveEnrollments int    `json:"active_enrollments"`
	AvailableSeats    int    `json:"available_seats"`
}

// SnapshotFromCourse builds a CourseSnapshot for a course whose active
// enrollment count has already been derived.
func SnapshotFromCourse(c Course, activeEnrollments int) CourseSnapshot {
	return CourseSnapshot{
		ID:                c.ID,
		Code:              c.Code,
		Name:              c.Name,
		Credits:           c.Credits,
		Capacity:          c.Capacity,
		StartTime:         c.StartsAt.String(),
		EndTime:           c.EndsAt.String(),
		Active:            c.Active,
		ActiveEnrollments: activeEnrollments,
		AvailableSeats:    c.Capacity - activeEnrollments,
	}
}
