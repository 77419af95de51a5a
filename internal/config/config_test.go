package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Schedule.StartHour != 9 || cfg.Schedule.EndHour != 17 {
		t.Errorf("working hours = %d-%d, want 9-17", cfg.Schedule.StartHour, cfg.Schedule.EndHour)
	}
	if cfg.Schedule.SlotDurationMins != 30 {
		t.Errorf("slot duration = %d, want 30", cfg.Schedule.SlotDurationMins)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("cache TTL = %v, want 15m", cfg.Cache.TTL)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry attempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
}

func TestLoadRejectsInvertedWorkingHours(t *testing.T) {
	t.Setenv("WORKING_HOURS_START", "17")
	t.Setenv("WORKING_HOURS_END", "9")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for end before start")
	}
	if !strings.Contains(err.Error(), "WORKING_HOURS_END") {
		t.Errorf("error does not name the offending variable: %v", err)
	}
}

func TestLoadRejectsFullWeekend(t *testing.T) {
	t.Setenv("WEEKEND_DAYS", "sunday,monday,tuesday,wednesday,thursday,friday,saturday")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when every day is a weekend")
	}
}

func TestLoadRejectsBadBackoffBounds(t *testing.T) {
	t.Setenv("DEADLOCK_BACKOFF_MIN", "500ms")
	t.Setenv("DEADLOCK_BACKOFF_MAX", "100ms")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for max below min")
	}
}

func TestGetEnvWeekdays(t *testing.T) {
	t.Setenv("WEEKEND_DAYS", "Friday, saturday")

	days := getEnvWeekdays("WEEKEND_DAYS", nil)
	if len(days) != 2 || days[0] != time.Friday || days[1] != time.Saturday {
		t.Errorf("parsed weekend days = %v, want [Friday Saturday]", days)
	}
}
