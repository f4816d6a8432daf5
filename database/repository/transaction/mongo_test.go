package transactionRepo

import (
	"testing"
	"time"

	"carebook/models"
)

func TestUTCWindowBoundsSortChronologically(t *testing.T) {
	east := time.FixedZone("", 3*60*60)
	west := time.FixedZone("", -5*60*60)
	// 2024-01-10 10:00 UTC and 2024-01-10 12:00 UTC
	earlier := time.Date(2024, 1, 10, 13, 0, 0, 0, east)
	later := time.Date(2024, 1, 10, 7, 0, 0, 0, west)

	a := utcTimestamp(earlier).Format(models.ISOLayout)
	b := utcTimestamp(later).Format(models.ISOLayout)
	if a != "2024-01-10T10:00:00.000Z" || b != "2024-01-10T12:00:00.000Z" {
		t.Fatalf("unexpected bounds %q %q", a, b)
	}
	if !(a < b) {
		t.Fatalf("expected %q to sort before %q", a, b)
	}
}
