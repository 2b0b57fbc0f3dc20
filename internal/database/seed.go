package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/utils"
)

// seedCourse is a course row inserted on first boot.
type seedCourse struct {
	code     string
	name     string
	credits  int
	capacity int
	startMin int
	endMin   int
}

var seedCourses = []seedCourse{
	{"MAT101", "Matemáticas I", 4, 30, 8 * 60, 10 * 60},
	{"PROG201", "Programación II", 5, 25, 10 * 60, 12 * 60},
	{"BD301", "Bases de Datos", 4, 20, 14 * 60, 16 * 60},
}

// Seed inserts the demo courses and, when COORDINATOR_EMAIL and
// COORDINATOR_PASSWORD are set, a coordinator account. Every insert is
// guarded by an existence check so repeated boots leave existing rows
// untouched.
func Seed(ctx context.Context, db *sql.DB, bcryptCost int) error {
	for _, sc := range seedCourses {
		var exists int
		err := db.QueryRowContext(ctx,
			"SELECT 1 FROM courses WHERE code=? LIMIT 1", sc.code).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("seed: check course %s: %w", sc.code, err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO courses (code, name, credits, capacity, start_min, end_min, active)
			 VALUES (?,?,?,?,?,?,1)`,
			sc.code, sc.name, sc.credits, sc.capacity, sc.startMin, sc.endMin)
		if err != nil {
			return fmt.Errorf("seed: insert course %s: %w", sc.code, err)
		}
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("COORDINATOR_EMAIL")))
	password := os.Getenv("COORDINATOR_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var exists int
	err := db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("seed: check coordinator: %w", err)
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return fmt.Errorf("seed: hash coordinator password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_active) VALUES (?,?,?,1)",
		email, hash, model.RoleCoordinator)
	if err != nil {
		return fmt.Errorf("seed: insert coordinator: %w", err)
	}
	return nil
}
