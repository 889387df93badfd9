package timeutil

import (
	"testing"
	"time"
)

func TestParseUTCOffset(t *testing.T) {
	tests := []struct {
		input       string
		wantSeconds int
		wantErr     bool
	}{
		{"UTC-5", -5 * 3600, false},
		{"UTC+2", 2 * 3600, false},
		{"UTC+05", 5 * 3600, false},
		{"UTC-12", -12 * 3600, false},
		{"UTC+0", 0, false},
		{"UTC+14", 14 * 3600, false},
		{"UTC-14", -14 * 3600, false},
		{"UTC+15", 0, true},
		{"UTC-15", 0, true},
		{"UTC", 0, true},
		{"EST", 0, true},
		{"UTC+abc", 0, true},
		{"UTC+5:30", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		loc, err := ParseUTCOffset(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUTCOffset(%q): expected error, got location %v", tt.input, loc)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUTCOffset(%q) failed: %v", tt.input, err)
			continue
		}

		_, offset := time.Date(2023, 5, 11, 12, 0, 0, 0, time.UTC).In(loc).Zone()
		if offset != tt.wantSeconds {
			t.Errorf("ParseUTCOffset(%q): expected offset %d, got %d", tt.input, tt.wantSeconds, offset)
		}
	}
}

func TestParseUTCOffsetLocationName(t *testing.T) {
	loc, err := ParseUTCOffset("UTC-5")
	if err != nil {
		t.Fatalf("ParseUTCOffset failed: %v", err)
	}
	if loc.String() != "UTC-5" {
		t.Errorf("expected location named 'UTC-5', got %q", loc.String())
	}
}

func TestIsUTCOffset(t *testing.T) {
	if !IsUTCOffset("UTC-5") {
		t.Error("expected 'UTC-5' to be a valid offset")
	}
	if IsUTCOffset("America/New_York") {
		t.Error("expected IANA zone name to be rejected")
	}
	if IsUTCOffset("") {
		t.Error("expected empty string to be rejected")
	}
}
