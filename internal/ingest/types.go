// Package ingest implements the CSV ingestion and aggregation pipeline that
// feeds the dashboard's state and monthly statistics tables.
package ingest

import (
	"errors"
	"fmt"
	"sort"
)

// DataType selects which CSV schema and aggregation shape apply to one
// import run. Closed set.
type DataType string

const (
	DataEnrollment  DataType = "enrollment"
	DataDemographic DataType = "demographic"
	DataBiometric   DataType = "biometric"
)

// ErrUnsupportedDataType is returned before any parsing when the requested
// data type is not one of the three known variants.
var ErrUnsupportedDataType = errors.New("unsupported data type")

// ParseDataType validates the string form of a DataType.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case DataEnrollment, DataDemographic, DataBiometric:
		return DataType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDataType, s)
}

// RawRecord maps column name to raw string value for one CSV row. Produced
// by the decoder, consumed immediately by the extractor.
type RawRecord map[string]string

// ExtractedFields is the numeric tuple pulled from one record. Which members
// are populated depends on the DataType: enrollment fills Age0to5, Age5to17
// and Age18Plus; demographic and biometric fill Age5to17 and Age17Plus.
// Every member defaults to 0 when the source cell is absent or non-numeric.
type ExtractedFields struct {
	Age0to5   int64
	Age5to17  int64
	Age17Plus int64
	Age18Plus int64
	Total     int64
}

// StateAggregate is the lifetime enrollment total for one state, accumulated
// across all records of a single import run.
type StateAggregate struct {
	State     string
	Total     int64
	Age0to5   int64
	Age5to17  int64
	Age18Plus int64
	Districts map[string]struct{}
}

// DistrictList returns the distinct district names in sorted slice form for
// persistence.
func (s *StateAggregate) DistrictList() []string {
	out := make([]string, 0, len(s.Districts))
	for d := range s.Districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// MonthKey identifies one monthly bucket.
type MonthKey struct {
	State string
	Year  int
	Month int
}

// MonthlyBucket holds the cumulative sums for one state in one calendar
// month. All three data types share this shape and populate disjoint column
// subsets depending on which import ran.
type MonthlyBucket struct {
	State string
	Year  int
	Month int

	EnrolTotal     int64
	EnrolAge0to5   int64
	EnrolAge5to17  int64
	EnrolAge18Plus int64

	DemoTotal     int64
	DemoAge5to17  int64
	DemoAge17Plus int64

	BioTotal     int64
	BioAge5to17  int64
	BioAge17Plus int64
}

// Key returns the bucket's aggregation key.
func (b *MonthlyBucket) Key() MonthKey {
	return MonthKey{State: b.State, Year: b.Year, Month: b.Month}
}

// ImportSummary is the result of one pipeline run. It is returned to the
// caller and never persisted.
type ImportSummary struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DataType      string `json:"dataType"`
	TotalRows     int    `json:"totalRows"`
	InsertedCount int    `json:"insertedCount"`
	ErrorCount    int    `json:"errorCount"`
}
