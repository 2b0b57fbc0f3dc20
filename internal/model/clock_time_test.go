package model

import "testing"

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"23:59", 1439, false},
		{"8:00", 480, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"", 0, true},
		{"noon", 0, true},
		{"12", 0, true},
		{"-1:30", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClockTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClockTime(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClockTime(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClockTime(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClockTimeString(t *testing.T) {
	cases := map[ClockTime]string{
		0:    "00:00",
		480:  "08:00",
		605:  "10:05",
		1439: "23:59",
	}
	for in, want := range cases {
		if got := in.String(); got != want {
			t.Errorf("ClockTime(%d).String() = %q, want %q", int(in), got, want)
		}
	}
}
