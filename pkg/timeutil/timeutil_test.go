package timeutil

import (
	"testing"
	"time"
)

func TestToLocalUnknownZoneReturnsUTC(t *testing.T) {
	instant := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	for _, zone := range []string{"", "   ", "Not/AZone", "../etc/passwd"} {
		got := ToLocal(instant, zone)
		if !got.Equal(instant) {
			t.Fatalf("zone %q: expected same instant, got %v", zone, got)
		}
		if got.Location() != time.UTC {
			t.Fatalf("zone %q: expected UTC location, got %v", zone, got.Location())
		}
	}
}

func TestFormatLocalRendersZoneTime(t *testing.T) {
	instant := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		zone string
		want string
	}{
		{zone: "America/Mexico_City", want: "12:00 01/06/2025"},
		{zone: "UTC", want: "18:00 01/06/2025"},
		{zone: "Asia/Tehran", want: "21:30 01/06/2025"},
		{zone: "Bogus/Zone", want: "18:00 01/06/2025"},
	}

	for _, tt := range tests {
		if got := FormatLocal(instant, tt.zone); got != tt.want {
			t.Fatalf("zone %q: expected %q, got %q", tt.zone, tt.want, got)
		}
	}
}

func TestIsValidZone(t *testing.T) {
	if !IsValidZone("Europe/Madrid") {
		t.Fatal("expected Europe/Madrid to be valid")
	}
	if !IsValidZone(" America/Mexico_City ") {
		t.Fatal("expected surrounding spaces to be ignored")
	}
	if IsValidZone("Mars/Olympus") {
		t.Fatal("expected unknown zone to be invalid")
	}
	if IsValidZone("") {
		t.Fatal("expected blank zone to be invalid")
	}
}
