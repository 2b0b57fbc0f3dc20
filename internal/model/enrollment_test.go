package model

import "testing"

func TestOccupiesSeat(t *testing.T) {
	if !StatusPending.OccupiesSeat() {
		t.Error("pending enrollments hold a seat")
	}
	if !StatusConfirmed.OccupiesSeat() {
		t.Error("confirmed enrollments hold a seat")
	}
	if StatusCancelled.OccupiesSeat() {
		t.Error("cancelled enrollments must release the seat")
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to EnrollmentStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAvailableSeats(t *testing.T) {
	enrollments := []Enrollment{
		{Status: StatusPending},
		{Status: StatusConfirmed},
		{Status: StatusCancelled},
	}
	if got := ActiveEnrollmentCount(enrollments); got != 2 {
		t.Fatalf("ActiveEnrollmentCount = %d, want 2", got)
	}
	if got := AvailableSeats(30, enrollments); got != 28 {
		t.Fatalf("AvailableSeats = %d, want 28", got)
	}
}
