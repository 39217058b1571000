package datagov

import (
	"fmt"
	"strings"

	"github.com/saral/aadhaar-pulse/internal/ingest"
)

// Normalize converts loose records API rows into the pipeline's RawRecord
// form. Column names are lowercased (the API is inconsistent between
// "State" and "state" across resources), values are stringified, and empty
// values take the decoder's "0" placeholder so the extractor sees the same
// shape it gets from CSV uploads. Numeric values arrive as JSON numbers and
// are rendered without an exponent.
func Normalize(rows []map[string]interface{}) []ingest.RawRecord {
	records := make([]ingest.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := make(ingest.RawRecord, len(row))
		for k, v := range row {
			rec[strings.ToLower(strings.TrimSpace(k))] = stringify(v)
		}
		records = append(records, rec)
	}
	return records
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "0"
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "0"
		}
		return s
	case float64:
		// JSON numbers decode as float64; counts are integral.
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
