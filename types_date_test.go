package tracker

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateString(t *testing.T) {
	d := NewDate(2026, time.August, 29)
	if got, want := d.String(), "2026-08-29"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.August, 29)

	if got, want := d.Add(3), NewDate(2026, time.September, 1); got != want {
		t.Errorf("Add(3) = %s, want %s", got, want)
	}
	if got, want := d.Add(-29), NewDate(2026, time.July, 31); got != want {
		t.Errorf("Add(-29) = %s, want %s", got, want)
	}
	if got, want := d.AddMonth(-6), NewDate(2026, time.March, 1); got != want {
		// Feb 29 2026 does not exist, time normalization lands on Mar 1
		t.Errorf("AddMonth(-6) = %s, want %s", got, want)
	}
	if !NewDate(2026, time.August, 28).Before(d) {
		t.Error("Before() = false for an earlier date")
	}
	if !d.After(NewDate(2026, time.August, 28)) {
		t.Error("After() = false for a later date")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2026-08-29", NewDate(2026, time.August, 29), false},
		{"2026-8-9", NewDate(2026, time.August, 9), false},
		{"not-a-date", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) = %s, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.August, 29)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), `"2026-08-29"`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}

func TestDateIsZero(t *testing.T) {
	if !(Date{}).IsZero() {
		t.Error("IsZero() = false for the zero date")
	}
	if Today().IsZero() {
		t.Error("IsZero() = true for today")
	}
}
