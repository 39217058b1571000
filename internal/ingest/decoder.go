package ingest

import "strings"

// SkipPolicy names a row-level tolerance so tests can assert on the policy
// rather than infer it from the absence of errors.
type SkipPolicy string

const (
	// SkipWrongArity drops a data row whose cell count does not exactly
	// match the header. Tolerance over strictness: the row is skipped
	// silently, not reported.
	SkipWrongArity SkipPolicy = "skip-wrong-arity"

	// SkipMissingState drops a row with no usable state value from
	// aggregation entirely.
	SkipMissingState SkipPolicy = "skip-missing-state"
)

// emptyCell is what an empty CSV cell decodes to. Numeric columns parse it
// as zero; key columns (state, date) treat it as absent.
const emptyCell = "0"

// DecodeCSV turns raw CSV text into an ordered sequence of RawRecord.
//
// The first line is the header and defines column names for every following
// row. Rows and cells are split on bare newline and comma; quoted fields and
// embedded separators are not handled, which is acceptable for the flat
// numeric exports this pipeline consumes. Cells are whitespace-trimmed and
// empty cells decode to "0". Input with fewer than two lines yields an empty
// sequence, not an error.
func DecodeCSV(raw string) []RawRecord {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil
	}

	header := strings.Split(lines[0], ",")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []RawRecord
	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")
		if len(cells) != len(header) {
			// SkipWrongArity
			continue
		}

		rec := make(RawRecord, len(header))
		for i, cell := range cells {
			v := strings.TrimSpace(cell)
			if v == "" {
				v = emptyCell
			}
			rec[header[i]] = v
		}
		records = append(records, rec)
	}
	return records
}
