package handler

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	in := time.Date(2026, 8, 31, 3, 45, 12, 500, jst)

	got := startOfDay(in)
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, jst)
	if !got.Equal(want) {
		t.Fatalf("startOfDay(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != jst {
		t.Fatalf("location changed to %v", got.Location())
	}

	// 03:45 JST is the previous day in UTC; a UTC truncation would land there.
	if utcDay := in.Truncate(24 * time.Hour); utcDay.Equal(got) {
		t.Fatalf("local midnight must differ from the UTC day boundary here")
	}
}
