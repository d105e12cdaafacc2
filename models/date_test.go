package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-02-10" {
		t.Errorf("expected 2025-02-10, got %s", d)
	}
	if _, err := ParseDate("10/02/2025"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestDate_AddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-01-31", 2, "2025-03-31"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-11-15", 3, "2026-02-15"},
	}
	for _, tt := range tests {
		d, _ := ParseDate(tt.from)
		if got := d.AddMonths(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d months: expected %s, got %s", tt.from, tt.n, tt.want, got)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2025-01-15"}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Date.Equal(NewDate(2025, time.January, 15)) {
		t.Errorf("expected 2025-01-15, got %s", v.Date)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"date":"2025-01-15"}` {
		t.Errorf("unexpected encoding %s", b)
	}
	if err := json.Unmarshal([]byte(`{"date":"tomorrow"}`), &v); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Errorf("expected 2025-03-09, got %s", d)
	}
	if err := d.Scan("2025-03-10T00:00:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-10" {
		t.Errorf("expected 2025-03-10, got %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestDate_At(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)
	got := NewDate(2025, 1, 15).At(NewClock(9, 30), loc)
	want := time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got.UTC())
	}
}

func TestDate_DaysUntil(t *testing.T) {
	tests := []struct {
		from, to Date
		want     int
	}{
		{NewDate(2025, time.March, 1), NewDate(2025, time.March, 4), 3},
		{NewDate(2025, time.March, 4), NewDate(2025, time.March, 1), -3},
		{NewDate(2025, time.February, 28), NewDate(2025, time.March, 1), 1},
		{NewDate(2024, time.December, 31), NewDate(2025, time.January, 1), 1},
		{NewDate(2025, time.March, 3), NewDate(2025, time.March, 3), 0},
		// a DATE column scanned in a local zone keeps its calendar day
		{Date{time.Date(2025, time.March, 3, 0, 0, 0, 0, time.FixedZone("PKT", 5*3600))}, NewDate(2025, time.March, 5), 2},
	}
	for _, tt := range tests {
		if got := tt.from.DaysUntil(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %d, got %d", tt.from, tt.to, tt.want, got)
		}
	}
}
