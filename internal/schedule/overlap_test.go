package schedule

import (
	"testing"

	"github.com/iliyamo/course-enrollment/internal/model"
)

func mustClock(t *testing.T, s string) model.ClockTime {
	t.Helper()
	ct, err := model.ParseClockTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ct
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"partial overlap", "09:00", "11:00", "10:00", "12:00", true},
		{"contained", "09:00", "12:00", "10:00", "11:00", true},
		{"identical", "08:00", "10:00", "08:00", "10:00", true},
		{"disjoint", "08:00", "10:00", "14:00", "16:00", false},
		{"touching boundary is not overlap", "09:00", "11:00", "11:00", "13:00", false},
		{"touching boundary reversed", "11:00", "13:00", "09:00", "11:00", false},
		{"one minute overlap", "09:00", "11:01", "11:00", "13:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(
				mustClock(t, tc.aStart), mustClock(t, tc.aEnd),
				mustClock(t, tc.bStart), mustClock(t, tc.bEnd),
			)
			if got != tc.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
			// the test must be symmetric
			rev := Overlaps(
				mustClock(t, tc.bStart), mustClock(t, tc.bEnd),
				mustClock(t, tc.aStart), mustClock(t, tc.aEnd),
			)
			if rev != got {
				t.Fatalf("overlap test is not symmetric for %s", tc.name)
			}
		})
	}
}

func TestCoursesOverlap(t *testing.T) {
	a := model.Course{StartsAt: mustClock(t, "08:00"), EndsAt: mustClock(t, "10:00")}
	b := model.Course{StartsAt: mustClock(t, "10:00"), EndsAt: mustClock(t, "12:00")}
	if CoursesOverlap(a, b) {
		t.Fatal("back-to-back courses must not overlap")
	}
	b.StartsAt = mustClock(t, "09:30")
	if !CoursesOverlap(a, b) {
		t.Fatal("expected overlap when b starts inside a")
	}
}
