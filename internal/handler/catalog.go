package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/enrollment"
	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// CatalogHandler serves the public course catalog. Unfiltered listings
// come from the enrollment engine's cached snapshot; filtered listings
// and detail lookups read the database directly.
type CatalogHandler struct {
	Engine      *enrollment.Engine
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
	JWTSecret   string
}

func NewCatalogHandler(eng *enrollment.Engine, courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo, jwtSecret string) *CatalogHandler {
	if eng == nil || courses == nil || enrollments == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Engine: eng, Courses: courses, Enrollments: enrollments, JWTSecret: jwtSecret}
}

// parseFilter builds a CourseFilter from query parameters. Supported:
// search, credits_min, credits_max, starts_after (HH:MM), ends_before
// (HH:MM). Malformed values are reported, not silently dropped.
func parseFilter(c echo.Context) (repository.CourseFilter, error) {
	f := repository.EmptyCourseFilter()
	f.Search = strings.TrimSpace(c.QueryParam("search"))

	if v := c.QueryParam("credits_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < model.MinCredits || n > model.MaxCredits {
			return f, fmt.Errorf("credits_min must be an integer between %d and %d", model.MinCredits, model.MaxCredits)
		}
		f.CreditsMin = n
	}
	if v := c.QueryParam("credits_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < model.MinCredits || n > model.MaxCredits {
			return f, fmt.Errorf("credits_max must be an integer between %d and %d", model.MinCredits, model.MaxCredits)
		}
		f.CreditsMax = n
	}
	if f.CreditsMin > 0 && f.CreditsMax > 0 && f.CreditsMin > f.CreditsMax {
		return f, errors.New("credits_min must not exceed credits_max")
	}
	if v := c.QueryParam("starts_after"); v != "" {
		ct, err := model.ParseClockTime(v)
		if err != nil {
			return f, errors.New("starts_after must be HH:MM")
		}
		f.StartsAfter = ct
	}
	if v := c.QueryParam("ends_before"); v != "" {
		ct, err := model.ParseClockTime(v)
		if err != nil {
			return f, errors.New("ends_before must be HH:MM")
		}
		f.EndsBefore = ct
	}
	return f, nil
}

// ListCourses handles GET /v1/courses.
func (h *CatalogHandler) ListCourses(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	snaps, err := h.Engine.GetActiveCourses(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": snaps})
}

// GetCourse handles GET /v1/courses/:code. Detail reads always hit the
// database so the occupancy shown next to an enroll button is fresh.
// The route is public, but when the request carries a valid bearer
// token the response also reports whether that user already holds an
// active enrollment in the course.
func (h *CatalogHandler) GetCourse(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Courses.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	if !course.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}

	occupied, err := h.Enrollments.CountActive(ctx, course.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}

	alreadyEnrolled := false
	if userID, ok := bearerUserID(c, h.JWTSecret); ok {
		if has, err := h.Enrollments.HasActive(ctx, course.ID, userID); err == nil {
			alreadyEnrolled = has
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"course":           model.SnapshotFromCourse(*course, occupied),
		"already_enrolled": alreadyEnrolled,
	})
}
