package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// EnrollmentRepo provides persistence for enrollments. Rows are never
// deleted; cancellation is a state change so the audit trail survives.
// All timestamp fields are stored in UTC.
type EnrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo returns a new EnrollmentRepo bound to the given database.
func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// DB exposes the underlying sql.DB for callers needing transaction control.
func (r *EnrollmentRepo) DB() *sql.DB { return r.db }

// CountActive returns the number of seat-occupying (Pending or
// Confirmed) enrollments for a course, read fresh from the
// authoritative store. Admission decisions must use this, never a
// cached occupancy number.
func (r *EnrollmentRepo) CountActive(ctx context.Context, courseID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status IN ('PENDING','CONFIRMED')`,
		courseID).Scan(&n)
	return n, err
}

// HasActive reports whether the user already holds a non-cancelled
// enrollment for the course. A cancelled row does not block
// re-enrollment.
func (r *EnrollmentRepo) HasActive(ctx context.Context, courseID, userID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = ? AND user_id = ? AND status <> 'CANCELLED')`,
		courseID, userID).Scan(&exists)
	return exists, err
}

// InsertPending inserts a new enrollment in state PENDING and returns
// its generated ID. It performs no capacity check; callers must
// serialize admission themselves (see InsertIfCapacityAvailable for the
// storage-atomic variant). A unique-key collision on (course, user)
// still maps to ErrAlreadyEnrolled so the storage layer stays the final
// arbiter of uniqueness.
func (r *EnrollmentRepo) InsertPending(ctx context.Context, courseID, userID uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO enrollments (course_id, user_id, status) VALUES (?, ?, 'PENDING')`,
		courseID, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyEnrolled
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// InsertIfCapacityAvailable admits one enrollment atomically with the
// capacity check. It locks the course row (SELECT ... FOR UPDATE) so
// concurrent admissions for the same course serialize at the storage
// layer, re-reads the active count under the lock, and only then
// inserts. Races for the last seat therefore produce exactly one
// winner; losers get ErrCapacityExceeded. Admissions for different
// courses lock different rows and do not serialize against each other.
func (r *EnrollmentRepo) InsertIfCapacityAvailable(ctx context.Context, courseID, userID uint64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	var active bool
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, active FROM courses WHERE id = ? FOR UPDATE`,
		courseID).Scan(&capacity, &active)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrCourseNotFound
		}
		return 0, err
	}
	if !active {
		return 0, ErrCourseNotFound
	}

	var occupied int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status IN ('PENDING','CONFIRMED')`,
		courseID).Scan(&occupied); err != nil {
		return 0, err
	}
	if occupied >= capacity {
		return 0, ErrCapacityExceeded
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (course_id, user_id, status) VALUES (?, ?, 'PENDING')`,
		courseID, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAlreadyEnrolled
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// GetByID loads a single enrollment by primary key.
func (r *EnrollmentRepo) GetByID(ctx context.Context, id uint64) (*model.Enrollment, error) {
	var e model.Enrollment
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, course_id, user_id, status, registered_at FROM enrollments WHERE id = ?`,
		id).Scan(&e.ID, &e.CourseID, &e.UserID, &status, &e.RegisteredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	e.Status = model.EnrollmentStatus(status)
	return &e, nil
}

// UpdateState writes the new lifecycle state of an enrollment. State
// machine validation happens in the engine; this only persists.
func (r *EnrollmentRepo) UpdateState(ctx context.Context, id uint64, state model.EnrollmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET status = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM enrollments WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrEnrollmentNotFound
		}
	}
	return nil
}

// ListActiveCoursesByUser returns the courses for which the user holds
// a non-cancelled enrollment. The schedule-conflict check joins over
// this set.
func (r *EnrollmentRepo) ListActiveCoursesByUser(ctx context.Context, userID uint64) ([]model.Course, error) {
	const q = `SELECT c.id, c.code, c.name, c.credits, c.capacity, c.start_min, c.end_min, c.active, c.created_at, c.updated_at
	           FROM enrollments e
	           JOIN courses c ON c.id = e.course_id
	           WHERE e.user_id = ? AND e.status <> 'CANCELLED'
	           ORDER BY c.code ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Course, 0)
	for rows.Next() {
		var c model.Course
		var startMin, endMin int
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.Capacity,
			&startMin, &endMin, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.StartsAt = model.ClockTime(startMin)
		c.EndsAt = model.ClockTime(endMin)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EnrollmentDetail joins an enrollment with the course it references.
// It is returned by the listing queries used for the student's "my
// enrollments" view and the coordinator's per-course review.
type EnrollmentDetail struct {
	ID           uint64    `json:"id"`
	CourseID     uint64    `json:"course_id"`
	CourseCode   string    `json:"course_code"`
	CourseName   string    `json:"course_name"`
	Credits      int       `json:"credits"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	UserID       uint64    `json:"user_id"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

const enrollmentDetailQuery = `SELECT e.id, e.course_id, c.code, c.name, c.credits, c.start_min, c.end_min,
	       e.user_id, e.status, e.registered_at
	FROM enrollments e
	JOIN courses c ON c.id = e.course_id`

func (r *EnrollmentRepo) queryDetails(ctx context.Context, q string, args ...any) ([]EnrollmentDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EnrollmentDetail, 0)
	for rows.Next() {
		var d EnrollmentDetail
		var startMin, endMin int
		if err := rows.Scan(&d.ID, &d.CourseID, &d.CourseCode, &d.CourseName, &d.Credits,
			&startMin, &endMin, &d.UserID, &d.Status, &d.RegisteredAt); err != nil {
			return nil, err
		}
		d.StartTime = model.ClockTime(startMin).String()
		d.EndTime = model.ClockTime(endMin).String()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns all of a user's enrollments, newest first,
// including cancelled ones so the history stays visible.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]EnrollmentDetail, error) {
	q := enrollmentDetailQuery + ` WHERE e.user_id = ? ORDER BY e.registered_at DESC`
	return r.queryDetails(ctx, q, userID)
}

// ListByCourse returns all enrollments for a course, newest first, for
// coordinator review.
func (r *EnrollmentRepo) ListByCourse(ctx context.Context, courseID uint64) ([]EnrollmentDetail, error) {
	q := enrollmentDetailQuery + ` WHERE e.course_id = ? ORDER BY e.registered_at DESC`
	return r.queryDetails(ctx, q, courseID)
}

// CountsByStatus returns total, pending and confirmed enrollment counts
// for the coordinator overview.
func (r *EnrollmentRepo) CountsByStatus(ctx context.Context) (total, pending, confirmed int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'PENDING'), 0),
		        COALESCE(SUM(status = 'CONFIRMED'), 0)
		 FROM enrollments`).Scan(&total, &pending, &confirmed)
	return total, pending, confirmed, err
}
