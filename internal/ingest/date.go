package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeDate converts a DD-MM-YYYY date string into its canonical
// YYYY-MM-DD form plus the (year, month) key used for monthly bucketing.
//
// The string must split into exactly three hyphen-separated parts with
// numeric month and year; otherwise ok is false and the caller skips
// monthly-bucket aggregation for that record. Day and month are zero-padded
// on output. There is no calendar validation: this pipeline is not a
// validation layer, and day 35 of month 13 passes through as-is.
func NormalizeDate(s string) (iso string, year, month int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return "", 0, 0, false
	}

	day := parts[0]
	month, merr := strconv.Atoi(parts[1])
	year, yerr := strconv.Atoi(parts[2])
	if merr != nil || yerr != nil {
		return "", 0, 0, false
	}

	dayN, derr := strconv.Atoi(day)
	if derr != nil {
		return "", 0, 0, false
	}

	return fmt.Sprintf("%d-%02d-%02d", year, month, dayN), year, month, true
}
