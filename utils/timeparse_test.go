package utils

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2:35:10 PM", "14:35:10"},
		{"2:35 pm", "14:35:00"},
		{"14:35:10", "14:35:10"},
		{"14:35", "14:35:00"},
		{"143510", "14:35:10"},
		{"1435", "14:35:00"},
		{"  9:05 AM ", "09:05:00"},
		{"12:00:00 AM", "00:00:00"},
		{"12:00 PM", "12:00:00"},
	}
	for _, c := range cases {
		got, err := ParseClockTime(c.in)
		if err != nil {
			t.Errorf("ParseClockTime(%q) error: %v", c.in, err)
			continue
		}
		if got.Format("15:04:05") != c.want {
			t.Errorf("ParseClockTime(%q) = %s, want %s", c.in, got.Format("15:04:05"), c.want)
		}
	}
}

func TestParseClockTimeInvalid(t *testing.T) {
	for _, in := range []string{"", "garbage", "25:99", "13:00 PM PM"} {
		if _, err := ParseClockTime(in); err == nil {
			t.Errorf("ParseClockTime(%q) expected error", in)
		}
	}
}

func TestCombineDateTime(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	got := CombineDateTime(day, "2:35:10 PM")
	want := time.Date(2024, 3, 15, 14, 35, 10, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CombineDateTime = %v, want %v", got, want)
	}

	// unparseable clock keeps the bare date
	got = CombineDateTime(day, "not a time")
	if !got.Equal(day) {
		t.Errorf("CombineDateTime with bad clock = %v, want %v", got, day)
	}

	// time-of-day on the date argument is discarded
	got = CombineDateTime(day.Add(5*time.Hour), "10:00")
	want = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CombineDateTime = %v, want %v", got, want)
	}
}
