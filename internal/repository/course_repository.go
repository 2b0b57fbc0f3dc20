// Package repository contains data access logic for course and
// enrollment persistence. This file defines repository methods for
// courses. Schedule columns store minutes since midnight (SMALLINT) so
// they scan directly into model.ClockTime without driver-side parsing.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// CourseRepo manages persistence for courses.
type CourseRepo struct {
	db *sql.DB
}

// NewCourseRepo returns a new CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *CourseRepo) DB() *sql.DB { return r.db }

// isDuplicateKey reports whether err is the MySQL duplicate entry error
// (code 1062), which surfaces unique constraint violations.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

const courseColumns = `id, code, name, credits, capacity, start_min, end_min, active, created_at, updated_at`

func scanCourse(row *sql.Row, c *model.Course) error {
	var startMin, endMin int
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.Capacity,
		&startMin, &endMin, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	c.StartsAt = model.ClockTime(startMin)
	c.EndsAt = model.ClockTime(endMin)
	return nil
}

// Create inserts a new course and populates the generated ID and
// DB-default timestamps on the given model.  A duplicate code is
// reported as ErrCodeExists; the storage layer is the final arbiter of
// uniqueness even when callers pre-checked.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	const q = `INSERT INTO courses (code, name, credits, capacity, start_min, end_min, active)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		c.Code, c.Name, c.Credits, c.Capacity, int(c.StartsAt), int(c.EndsAt), c.Active)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrCodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, c.ID)
	return scanCourse(row, c)
}

// Update rewrites all mutable fields of a course.  It returns
// ErrCourseNotFound when the ID does not match a row and ErrCodeExists
// when the new code collides with another course.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course) error {
	const q = `UPDATE courses
	           SET code = ?, name = ?, credits = ?, capacity = ?, start_min = ?, end_min = ?, active = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		c.Code, c.Name, c.Credits, c.Capacity, int(c.StartsAt), int(c.EndsAt), c.Active, c.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrCodeExists
		}
		return err
	}
	// RowsAffected is 0 both for a missing row and for a no-op update,
	// so distinguish by re-reading the row.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM courses WHERE id = ?)`, c.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}
	}
	return nil
}

// SetActive flips the active flag of a course.
func (r *CourseRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM courses WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrCourseNotFound
		}
	}
	return nil
}

// GetByID loads a single course by primary key.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
	var c model.Course
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	if err := scanCourse(row, &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByCode loads a single course by its unique code.
func (r *CourseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var c model.Course
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = ?`, code)
	if err := scanCourse(row, &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CodeExists reports whether another course already uses the given
// code.  excludeID skips the course being edited so its own current
// code is not reported as a collision.
func (r *CourseRepo) CodeExists(ctx context.Context, code string, excludeID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM courses WHERE code = ? AND id <> ?)`,
		code, excludeID).Scan(&exists)
	return exists, err
}

// CountAll returns total and active course counts for the coordinator
// overview.
func (r *CourseRepo) CountAll(ctx context.Context) (total, active int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(active), 0) FROM courses`).Scan(&total, &active)
	return total, active, err
}
