package domain

import (
	"testing"
	"time"
)

func ts(hour int) time.Time {
	return time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	b := &Booking{StartTime: ts(9), EndTime: ts(11)}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"contained", ts(9), ts(10), true},
		{"straddles end", ts(10), ts(12), true},
		{"straddles start", ts(8), ts(10), true},
		{"covers", ts(8), ts(12), true},
		{"touches end", ts(11), ts(13), false},
		{"touches start", ts(7), ts(9), false},
		{"disjoint", ts(13), ts(14), false},
	}
	for _, tc := range cases {
		if got := b.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: Overlaps(%v, %v) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestComputeTotal(t *testing.T) {
	room := &Room{HourlyRateCents: 2000}
	catalog := []Feature{
		{ID: 1, PriceCents: 500},
		{ID: 2, PriceCents: 250},
	}

	if got := ComputeTotal(ts(9), ts(11), room, catalog, nil); got != 4000 {
		t.Errorf("plain 2h: got %d, want 4000", got)
	}
	if got := ComputeTotal(ts(9), ts(11), room, catalog, []int64{1, 2}); got != 4750 {
		t.Errorf("2h with both features: got %d, want 4750", got)
	}
	// A feature removed from the catalog is priced at nothing.
	if got := ComputeTotal(ts(9), ts(11), room, catalog, []int64{1, 99}); got != 4500 {
		t.Errorf("2h with deleted feature: got %d, want 4500", got)
	}

	// Fractional hours round to the nearest cent.
	half := ts(9).Add(90 * time.Minute)
	if got := ComputeTotal(ts(9), half, room, nil, nil); got != 3000 {
		t.Errorf("1.5h: got %d, want 3000", got)
	}
}

func TestBookingRequestValidate(t *testing.T) {
	ok := BookingRequest{RoomID: 1, StartTime: ts(9), EndTime: ts(11)}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	inverted := BookingRequest{RoomID: 1, StartTime: ts(11), EndTime: ts(9)}
	if err := inverted.Validate(); KindOf(err) != KindValidation {
		t.Errorf("expected validation error for inverted interval, got %v", err)
	}

	zeroLength := BookingRequest{RoomID: 1, StartTime: ts(9), EndTime: ts(9)}
	if err := zeroLength.Validate(); KindOf(err) != KindValidation {
		t.Errorf("expected validation error for zero-length interval, got %v", err)
	}
}
