// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/handler"
	"github.com/iliyamo/course-enrollment/internal/middleware"
	"github.com/iliyamo/course-enrollment/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently this is the health check and the public course catalog.
func RegisterRoutes(e *echo.Echo, catalog *handler.CatalogHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/courses", catalog.ListCourses)
	e.GET("/v1/courses/:code", catalog.GetCourse)
}

// RegisterAuth registers the authentication routes. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with either a bearer token or a refresh token in the
	// body, so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleStudent, model.RoleCoordinator))
	auth.GET("/me", a.Me)
}

// RegisterStudent registers the enrollment endpoints available to any
// authenticated user.
func RegisterStudent(e *echo.Echo, s *handler.StudentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleStudent, model.RoleCoordinator))
	g.POST("/courses/:id/enroll", s.Enroll)
	g.GET("/me/enrollments", s.MyEnrollments)
}

// RegisterCoordinator registers course administration and enrollment
// review endpoints, restricted to the COORDINATOR role.
func RegisterCoordinator(e *echo.Echo, h *handler.CoordinatorHandler, jwtSecret string) {
	g := e.Group("/v1/coordinator")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCoordinator))

	g.GET("/overview", h.Overview)
	g.POST("/courses", h.CreateCourse)
	g.PUT("/courses/:id", h.UpdateCourse)
	g.PATCH("/courses/:id/active", h.SetCourseActive)
	g.GET("/courses/:id/enrollments", h.CourseEnrollments)
	g.POST("/enrollments/:id/confirm", h.ConfirmEnrollment)
	g.POST("/enrollments/:id/cancel", h.CancelEnrollment)
}
