package main

import (
	"testing"
	"time"
)

func TestResolveRange(t *testing.T) {
	t.Run("both bounds", func(t *testing.T) {
		start, end, err := resolveRange("2026-01-01", "2026-03-31")
		if err != nil {
			t.Fatal(err)
		}
		if start == nil || start.Format("2006-01-02") != "2026-01-01" {
			t.Errorf("start = %v", start)
		}
		if end.Format("2006-01-02") != "2026-03-31" {
			t.Errorf("end = %v", end)
		}
	})

	t.Run("empty start is unbounded", func(t *testing.T) {
		start, _, err := resolveRange("", "2026-03-31")
		if err != nil {
			t.Fatal(err)
		}
		if start != nil {
			t.Errorf("start = %v, want nil", start)
		}
	})

	t.Run("empty end defaults to today", func(t *testing.T) {
		_, end, err := resolveRange("2026-01-01", "")
		if err != nil {
			t.Fatal(err)
		}
		now := time.Now()
		if end.Year() != now.Year() || end.YearDay() != now.YearDay() {
			t.Errorf("end = %v, want today", end)
		}
		if end.Hour() != 0 || end.Minute() != 0 {
			t.Errorf("end not at midnight: %v", end)
		}
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		if _, _, err := resolveRange("2026-03-31", "2026-01-01"); err == nil {
			t.Error("expected error for end before start")
		}
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		if _, _, err := resolveRange("31/03/2026", ""); err == nil {
			t.Error("expected error for malformed date")
		}
	})
}
