package ingest

import (
	"context"
	"fmt"

	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
)

// Writer persists accumulated aggregation keys one at a time. The two
// methods deliberately carry different upsert semantics (see their docs);
// the divergence is inherited from the dashboard's observed behavior and
// must not be unified silently.
type Writer interface {
	// UpsertStateAggregate REPLACES any previously persisted aggregate for
	// the state with this run's totals.
	UpsertStateAggregate(ctx context.Context, agg *StateAggregate) error

	// MergeMonthlyBucket ADDS this run's sums to any previously persisted
	// bucket for the (state, year, month) key, inserting when absent.
	MergeMonthlyBucket(ctx context.Context, bucket *MonthlyBucket) error
}

// Pipeline runs decode -> extract -> aggregate -> persist for one uploaded
// file. Single pass, non-resumable; retry is the caller's responsibility.
type Pipeline struct {
	writer Writer
}

// NewPipeline creates a pipeline over the given writer.
func NewPipeline(w Writer) *Pipeline {
	return &Pipeline{writer: w}
}

// Run processes one file's CSV text for the named data type and returns an
// ImportSummary. An unknown data type fails fast before any parsing. Row
// level problems (wrong arity, bad numerics, bad dates, missing state) are
// tolerated per the skip policies; per-key write failures are logged and
// counted without aborting the remaining keys. There is no transactional
// atomicity across keys: downstream dashboards tolerate partial data.
func (p *Pipeline) Run(ctx context.Context, dataType, csvContent string) (*ImportSummary, error) {
	dt, err := ParseDataType(dataType)
	if err != nil {
		return nil, err
	}
	return p.RunRecords(ctx, dt, DecodeCSV(csvContent))
}

// RunRecords aggregates and persists already-decoded records. It is the
// shared back half of Run, also fed by the data.gov.in sync after response
// normalization.
func (p *Pipeline) RunRecords(ctx context.Context, dt DataType, records []RawRecord) (*ImportSummary, error) {
	agg := NewAggregator(dt)
	titler := stateTitler()

	for _, rec := range records {
		state := textField(rec, stateColumns)
		if state == "" {
			// SkipMissingState
			continue
		}
		state = titler.String(state)

		fields := Extract(rec, dt)

		var mk *MonthKey
		if _, year, month, ok := NormalizeDate(textField(rec, dateColumns)); ok {
			mk = &MonthKey{State: state, Year: year, Month: month}
		}

		agg.Add(state, textField(rec, districtColumns), fields, mk)
	}

	summary := &ImportSummary{
		Success:   true,
		DataType:  string(dt),
		TotalRows: len(records),
	}

	for _, sa := range agg.States() {
		if err := p.writer.UpsertStateAggregate(ctx, sa); err != nil {
			logger.Error("state aggregate write failed",
				"dataType", dt, "state", sa.State, "error", err)
			summary.ErrorCount++
			continue
		}
		summary.InsertedCount++
	}

	for _, bucket := range agg.Monthly() {
		if err := p.writer.MergeMonthlyBucket(ctx, bucket); err != nil {
			logger.Error("monthly bucket write failed",
				"dataType", dt, "state", bucket.State,
				"year", bucket.Year, "month", bucket.Month, "error", err)
			summary.ErrorCount++
			continue
		}
		summary.InsertedCount++
	}

	summary.Message = fmt.Sprintf("processed %d rows: %d keys written, %d failed",
		summary.TotalRows, summary.InsertedCount, summary.ErrorCount)
	return summary, nil
}
