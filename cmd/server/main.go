package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/cache"
	"github.com/iliyamo/course-enrollment/internal/config"
	"github.com/iliyamo/course-enrollment/internal/courseadmin"
	"github.com/iliyamo/course-enrollment/internal/database"
	"github.com/iliyamo/course-enrollment/internal/enrollment"
	"github.com/iliyamo/course-enrollment/internal/handler"
	"github.com/iliyamo/course-enrollment/internal/middleware"
	"github.com/iliyamo/course-enrollment/internal/queue"
	"github.com/iliyamo/course-enrollment/internal/repository"
	"github.com/iliyamo/course-enrollment/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.Seed(seedCtx, db, cfg.BcryptCost); err != nil {
		log.Fatalf("seed: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	catalogCache := cache.NewCatalog(rdb, config.LoadCatalogCacheConfig())

	courses := repository.NewCourseRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Admission goes through the storage-atomic strategy so capacity
	// holds across every process sharing the database.
	engine := enrollment.New(courses, enrollments, catalogCache,
		enrollment.ConditionalInsert{Store: enrollments})
	admin := courseadmin.New(courses, engine)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	catalogH := handler.NewCatalogHandler(engine, courses, enrollments, cfg.JWTSecret)
	studentH := handler.NewStudentHandler(engine, enrollments)
	coordH := handler.NewCoordinatorHandler(admin, engine, courses, enrollments)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, catalogH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterStudent(e, studentH, cfg.JWTSecret)
	router.RegisterCoordinator(e, coordH, cfg.JWTSecret)

	go func() {
		if err := queue.StartEnrollmentConsumer(); err != nil {
			log.Printf("enrollment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
