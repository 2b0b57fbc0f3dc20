package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/courseadmin"
	"github.com/iliyamo/course-enrollment/internal/enrollment"
	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/queue"
	"github.com/iliyamo/course-enrollment/internal/repository"
	queue_publisher "github.com/iliyamo/course-enrollment/internal/service"
)

// CoordinatorHandler bundles the course administration service and the
// enrollment review operations behind the COORDINATOR role.
type CoordinatorHandler struct {
	Admin       *courseadmin.Service
	Engine      *enrollment.Engine
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
}

func NewCoordinatorHandler(admin *courseadmin.Service, eng *enrollment.Engine, courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo) *CoordinatorHandler {
	if admin == nil || eng == nil || courses == nil || enrollments == nil {
		panic("nil dependency passed to NewCoordinatorHandler")
	}
	return &CoordinatorHandler{Admin: admin, Engine: eng, Courses: courses, Enrollments: enrollments}
}

// ----- DTOs -----

type courseReq struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Credits   int    `json:"credits"`
	Capacity  int    `json:"capacity"`
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
}

type setActiveReq struct {
	Active *bool `json:"active"`
}

func (r courseReq) toSpec() (courseadmin.CourseSpec, error) {
	start, err := model.ParseClockTime(r.StartTime)
	if err != nil {
		return courseadmin.CourseSpec{}, errors.New("start_time must be HH:MM")
	}
	end, err := model.ParseClockTime(r.EndTime)
	if err != nil {
		return courseadmin.CourseSpec{}, errors.New("end_time must be HH:MM")
	}
	return courseadmin.CourseSpec{
		Code:     r.Code,
		Name:     r.Name,
		Credits:  r.Credits,
		Capacity: r.Capacity,
		StartsAt: start,
		EndsAt:   end,
	}, nil
}

func courseJSON(c *model.Course) echo.Map {
	return echo.Map{
		"id":         c.ID,
		"code":       c.Code,
		"name":       c.Name,
		"credits":    c.Credits,
		"capacity":   c.Capacity,
		"start_time": c.StartsAt.String(),
		"end_time":   c.EndsAt.String(),
		"active":     c.Active,
	}
}

// adminError maps course administration failures to HTTP responses. A
// taken course code answers 409, other validation failures 400.
func adminError(c echo.Context, err error) error {
	var verr *courseadmin.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Field == "code" && verr.Reason == "already in use" {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": verr.Error()})
	case errors.Is(err, courseadmin.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "course operation failed"})
}

// CreateCourse handles POST /v1/coordinator/courses.
func (h *CoordinatorHandler) CreateCourse(c echo.Context) error {
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	spec, err := req.toSpec()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Admin.CreateCourse(ctx, spec)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(http.StatusCreated, courseJSON(course))
}

// UpdateCourse handles PUT /v1/coordinator/courses/:id.
func (h *CoordinatorHandler) UpdateCourse(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	spec, err := req.toSpec()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Admin.EditCourse(ctx, id, spec)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(http.StatusOK, courseJSON(course))
}

// SetCourseActive handles PATCH /v1/coordinator/courses/:id/active.
func (h *CoordinatorHandler) SetCourseActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active (boolean) required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Admin.SetActive(ctx, id, *req.Active)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(http.StatusOK, courseJSON(course))
}

// CourseEnrollments handles GET /v1/coordinator/courses/:id/enrollments.
func (h *CoordinatorHandler) CourseEnrollments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Courses.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	details, err := h.Enrollments.ListByCourse(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list enrollments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": details})
}

// Overview handles GET /v1/coordinator/overview with the dashboard
// counters: course totals and enrollment counts per state.
func (h *CoordinatorHandler) Overview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	totalCourses, activeCourses, err := h.Courses.CountAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load overview failed"})
	}
	totalEnr, pending, confirmed, err := h.Enrollments.CountsByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load overview failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"courses": echo.Map{
			"total":  totalCourses,
			"active": activeCourses,
		},
		"enrollments": echo.Map{
			"total":     totalEnr,
			"pending":   pending,
			"confirmed": confirmed,
		},
	})
}

// ConfirmEnrollment handles POST /v1/coordinator/enrollments/:id/confirm.
func (h *CoordinatorHandler) ConfirmEnrollment(c echo.Context) error {
	return h.transition(c, model.StatusConfirmed)
}

// CancelEnrollment handles POST /v1/coordinator/enrollments/:id/cancel.
func (h *CoordinatorHandler) CancelEnrollment(c echo.Context) error {
	return h.transition(c, model.StatusCancelled)
}

func (h *CoordinatorHandler) transition(c echo.Context, target model.EnrollmentStatus) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Transition(ctx, id, target)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "enrollment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
	}

	body := echo.Map{
		"enrollment_id": res.Enrollment.ID,
		"status":        res.Enrollment.Status,
		"applied":       res.Applied,
	}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}

	if res.Applied && target == model.StatusConfirmed {
		h.publishConfirmed(res.Enrollment)
	}
	return c.JSON(http.StatusOK, body)
}

// publishConfirmed emits the enrollment.confirmed event in the
// background. Broker failures are logged by the publisher and never
// surface to the coordinator's request.
func (h *CoordinatorHandler) publishConfirmed(enr *model.Enrollment) {
	ev := queue.EnrollmentConfirmedEvent{
		EnrollmentID: enr.ID,
		UserID:       enr.UserID,
		CourseID:     enr.CourseID,
		ConfirmedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if course, err := h.Courses.GetByID(ctx, enr.CourseID); err == nil {
		ev.CourseCode = course.Code
		ev.CourseName = course.Name
		ev.StartsAt = course.StartsAt.String()
		ev.EndsAt = course.EndsAt.String()
	} else {
		log.Printf("enrollment-event: load course %d failed, publishing without course fields: %v", enr.CourseID, err)
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishEnrollmentConfirmed(pubCtx, ev)
	}()
}
