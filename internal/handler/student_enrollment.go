package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/enrollment"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// StudentHandler exposes the student-facing enrollment endpoints. The
// admission decision itself lives in the enrollment engine; this layer
// only translates engine outcomes into HTTP responses.
type StudentHandler struct {
	Engine      *enrollment.Engine
	Enrollments *repository.EnrollmentRepo
}

func NewStudentHandler(eng *enrollment.Engine, enrollments *repository.EnrollmentRepo) *StudentHandler {
	if eng == nil || enrollments == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	return &StudentHandler{Engine: eng, Enrollments: enrollments}
}

// Enroll handles POST /v1/courses/:id/enroll. A granted admission
// answers 201 with the new Pending enrollment; every rejection carries
// a distinct error so clients can react to each failure mode.
func (h *StudentHandler) Enroll(c echo.Context) error {
	courseID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	enr, err := h.Engine.RequestEnrollment(ctx, courseID, userID)
	if err != nil {
		var conflict *enrollment.ScheduleConflictError
		switch {
		case errors.Is(err, enrollment.ErrCourseUnavailable):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		case errors.Is(err, enrollment.ErrAlreadyEnrolled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled in this course"})
		case errors.Is(err, enrollment.ErrCapacityExceeded):
			return c.JSON(http.StatusConflict, echo.Map{"error": "course is full"})
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "schedule conflict with an existing enrollment",
				"conflicting_course": echo.Map{
					"code":       conflict.Conflicting.Code,
					"name":       conflict.Conflicting.Name,
					"start_time": conflict.Conflicting.StartsAt.String(),
					"end_time":   conflict.Conflicting.EndsAt.String(),
				},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enroll failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"enrollment_id": enr.ID,
		"course_id":     enr.CourseID,
		"status":        enr.Status,
		"registered_at": enr.RegisteredAt,
	})
}

// MyEnrollments handles GET /v1/me/enrollments and returns the user's
// full enrollment history, newest first, including cancelled rows.
func (h *StudentHandler) MyEnrollments(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Enrollments.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list enrollments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": details})
}
