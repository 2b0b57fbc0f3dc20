package enrollment

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// AdmissionStrategy makes the capacity check and the Pending insert one
// logically atomic unit per course. The rest of the engine is
// strategy-agnostic; swapping the strategy must never weaken the
// contract that no sequence of concurrent admissions leaves a course
// with more seat-occupying enrollments than its capacity.
type AdmissionStrategy interface {
	// Admit inserts a Pending enrollment if and only if the course still
	// has a free seat at the moment of the insert. It returns the new
	// enrollment ID or ErrCapacityExceeded when the seat is gone.
	Admit(ctx context.Context, course *model.Course, userID uint64) (uint64, error)
}

// ConditionalInsert delegates the atomicity to the storage layer: the
// repository locks the course row, re-reads the occupancy under the
// lock and inserts in the same transaction. This is the strategy the
// server wires, since it also holds across multiple processes sharing
// one database.
type ConditionalInsert struct {
	Store EnrollmentStore
}

// Admit implements AdmissionStrategy.
func (s ConditionalInsert) Admit(ctx context.Context, course *model.Course, userID uint64) (uint64, error) {
	id, err := s.Store.InsertIfCapacityAvailable(ctx, course.ID, userID)
	switch {
	case errors.Is(err, repository.ErrCapacityExceeded):
		return 0, ErrCapacityExceeded
	case errors.Is(err, repository.ErrCourseNotFound):
		return 0, ErrCourseUnavailable
	case errors.Is(err, repository.ErrAlreadyEnrolled):
		return 0, ErrAlreadyEnrolled
	}
	return id, err
}

// LockPerCourse serializes the read-decide-write sequence with an
// in-process mutex keyed by course ID. Admissions for different
// courses proceed in parallel; only contenders for the same course
// queue up. Suitable for a single-process deployment and for tests
// that exercise the race without a database.
type LockPerCourse struct {
	store EnrollmentStore

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewLockPerCourse builds the keyed-mutex strategy over the given store.
func NewLockPerCourse(store EnrollmentStore) *LockPerCourse {
	return &LockPerCourse{store: store, locks: make(map[uint64]*sync.Mutex)}
}

func (s *LockPerCourse) lockFor(courseID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[courseID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[courseID] = l
	}
	return l
}

// Admit implements AdmissionStrategy. Both the occupancy and the
// user's uniqueness are re-read under the per-course lock: the engine's
// own checks run unlocked, so two racing requests by the same user can
// each pass them before either inserts. The lock makes the re-check and
// the insert one unit.
func (s *LockPerCourse) Admit(ctx context.Context, course *model.Course, userID uint64) (uint64, error) {
	l := s.lockFor(course.ID)
	l.Lock()
	defer l.Unlock()

	already, err := s.store.HasActive(ctx, course.ID, userID)
	if err != nil {
		return 0, err
	}
	if already {
		return 0, ErrAlreadyEnrolled
	}

	occupied, err := s.store.CountActive(ctx, course.ID)
	if err != nil {
		return 0, err
	}
	if occupied >= course.Capacity {
		return 0, ErrCapacityExceeded
	}
	id, err := s.store.InsertPending(ctx, course.ID, userID)
	if errors.Is(err, repository.ErrAlreadyEnrolled) {
		return 0, ErrAlreadyEnrolled
	}
	return id, err
}
