// Package schedule provides the time-window overlap test used by the
// enrollment engine when admitting a student into a course.
package schedule

import "github.com/iliyamo/course-enrollment/internal/model"

// Overlaps reports whether two half-open [start,end) daily intervals
// intersect.  Touching boundaries do not overlap: a course ending at
// 11:00 is compatible with one starting at 11:00.
func Overlaps(aStart, aEnd, bStart, bEnd model.ClockTime) bool {
	return aStart < bEnd && aEnd > bStart
}

// CoursesOverlap applies Overlaps to the schedules of two courses.
func CoursesOverlap(a, b model.Course) bool {
	return Overlaps(a.StartsAt, a.EndsAt, b.StartsAt, b.EndsAt)
}
