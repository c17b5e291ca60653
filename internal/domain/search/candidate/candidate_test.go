package candidate

import (
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("ART", -3*3600))
	if got := FormatTime(ts); got != "2024-05-06T10:08:09.123Z" {
		t.Errorf("FormatTime = %q", got)
	}
	whole := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	c := Candidate{CreatedAt: whole}
	if got := c.CreatedAtISO(); got != "2024-05-06T07:08:09.000Z" {
		t.Errorf("CreatedAtISO = %q", got)
	}
}
