package ingest

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidate column names per logical field, tried in order; first present
// column wins. Source systems are inconsistent about the "+" spelling of the
// 17-and-over columns, so both spellings are listed explicitly.
var (
	stateColumns    = []string{"state"}
	districtColumns = []string{"district"}
	dateColumns     = []string{"date"}

	enrolAge0to5Columns   = []string{"age_0_5"}
	enrolAge5to17Columns  = []string{"age_5_17"}
	enrolAge18PlusColumns = []string{"age_18_greater"}

	demoAge5to17Columns  = []string{"demo_age_5_17"}
	demoAge17PlusColumns = []string{"demo_age_17_plus", "demo_age_17_+"}

	bioAge5to17Columns  = []string{"bio_age_5_17"}
	bioAge17PlusColumns = []string{"bio_age_17_plus", "bio_age_17_+"}
)

// numericField returns the first candidate column's value parsed as an
// integer, defaulting to 0 when every candidate is absent or the value is
// non-numeric. Parse tolerance mirrors the decoder: bad input never errors.
func numericField(rec RawRecord, candidates []string) int64 {
	for _, col := range candidates {
		v, present := rec[col]
		if !present {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// textField returns the first candidate column's trimmed value, or "" when
// absent or holding the empty-cell placeholder.
func textField(rec RawRecord, candidates []string) string {
	for _, col := range candidates {
		v, present := rec[col]
		if !present {
			continue
		}
		if v == emptyCell {
			return ""
		}
		return v
	}
	return ""
}

// Extract pulls the fixed numeric tuple for the given DataType out of one
// record. Total is the sum of the type's age fields.
func Extract(rec RawRecord, dt DataType) ExtractedFields {
	var f ExtractedFields
	switch dt {
	case DataEnrollment:
		f.Age0to5 = numericField(rec, enrolAge0to5Columns)
		f.Age5to17 = numericField(rec, enrolAge5to17Columns)
		f.Age18Plus = numericField(rec, enrolAge18PlusColumns)
		f.Total = f.Age0to5 + f.Age5to17 + f.Age18Plus
	case DataDemographic:
		f.Age5to17 = numericField(rec, demoAge5to17Columns)
		f.Age17Plus = numericField(rec, demoAge17PlusColumns)
		f.Total = f.Age5to17 + f.Age17Plus
	case DataBiometric:
		f.Age5to17 = numericField(rec, bioAge5to17Columns)
		f.Age17Plus = numericField(rec, bioAge17PlusColumns)
		f.Total = f.Age5to17 + f.Age17Plus
	}
	return f
}

// stateTitler folds the inconsistent casing of source files ("kerala",
// "KERALA") into one canonical StateKey. cases.Caser carries internal state,
// so each pipeline run builds its own.
func stateTitler() cases.Caser {
	return cases.Title(language.English)
}
