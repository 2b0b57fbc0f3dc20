package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// CourseFilter defines the optional constraints a catalog read may
// apply. Zero values mean "unset": empty Search, zero credit bounds and
// negative clock times leave the corresponding predicate out. An empty
// filter is the only shape served from the cache.
type CourseFilter struct {
	Search      string          // matches name or code, case-insensitive substring
	CreditsMin  int             // inclusive lower bound, 0 = unset
	CreditsMax  int             // inclusive upper bound, 0 = unset
	StartsAfter model.ClockTime // courses starting at or after, negative = unset
	EndsBefore  model.ClockTime // courses ending at or before, negative = unset
}

// EmptyCourseFilter returns a filter with every constraint unset.
func EmptyCourseFilter() CourseFilter {
	return CourseFilter{StartsAfter: -1, EndsBefore: -1}
}

// Empty reports whether no constraint is set, i.e. the read covers the
// full active-course snapshot.
func (f CourseFilter) Empty() bool {
	return f.Search == "" && f.CreditsMin == 0 && f.CreditsMax == 0 &&
		f.StartsAfter < 0 && f.EndsBefore < 0
}

// ListActive returns active courses matching the filter, each with its
// occupancy derived fresh from the enrollments table. Results are
// ordered by course code for deterministic output.
func (r *CourseRepo) ListActive(ctx context.Context, f CourseFilter) ([]model.CourseSnapshot, error) {
	where := []string{"c.active = 1"}
	args := []any{}

	if f.Search != "" {
		where = append(where, "(LOWER(c.name) LIKE ? OR LOWER(c.code) LIKE ?)")
		pat := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pat, pat)
	}
	if f.CreditsMin > 0 {
		where = append(where, "c.credits >= ?")
		args = append(args, f.CreditsMin)
	}
	if f.CreditsMax > 0 {
		where = append(where, "c.credits <= ?")
		args = append(args, f.CreditsMax)
	}
	if f.StartsAfter >= 0 {
		where = append(where, "c.start_min >= ?")
		args = append(args, int(f.StartsAfter))
	}
	if f.EndsBefore >= 0 {
		where = append(where, "c.end_min <= ?")
		args = append(args, int(f.EndsBefore))
	}

	q := `SELECT c.id, c.code, c.name, c.credits, c.capacity, c.start_min, c.end_min, c.active,
	             COALESCE(e.cnt, 0) AS active_enrollments
	      FROM courses c
	      LEFT JOIN (
	          SELECT course_id, COUNT(*) AS cnt
	          FROM enrollments
	          WHERE status IN ('PENDING', 'CONFIRMED')
	          GROUP BY course_id
	      ) e ON e.course_id = c.id
	      WHERE ` + strings.Join(where, " AND ") + `
	      ORDER BY c.code ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CourseSnapshot, 0)
	for rows.Next() {
		var (
			s                 model.CourseSnapshot
			startMin, endMin  int
			activeEnrollments int
		)
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Credits, &s.Capacity,
			&startMin, &endMin, &s.Active, &activeEnrollments); err != nil {
			return nil, err
		}
		s.StartTime = model.ClockTime(startMin).String()
		s.EndTime = model.ClockTime(endMin).String()
		s.ActiveEnrollments = activeEnrollments
		s.AvailableSeats = s.Capacity - activeEnrollments
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
