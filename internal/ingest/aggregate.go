package ingest

// Aggregator folds extracted fields into two run-local keyed accumulators:
// per-state lifetime totals (enrollment only) and per-(state, year, month)
// buckets. The maps are owned by one pipeline run; there is no package-level
// state. Sums are commutative, so record order never affects the result.
type Aggregator struct {
	dataType DataType
	states   map[string]*StateAggregate
	monthly  map[MonthKey]*MonthlyBucket
}

// NewAggregator creates an empty accumulator for one import run.
func NewAggregator(dt DataType) *Aggregator {
	return &Aggregator{
		dataType: dt,
		states:   make(map[string]*StateAggregate),
		monthly:  make(map[MonthKey]*MonthlyBucket),
	}
}

// Add folds one record's fields into the running totals. The state-level
// aggregate is always updated for enrollment data, even when the record's
// date failed to normalize; the monthly bucket is updated only when a month
// key is available.
func (a *Aggregator) Add(state, district string, f ExtractedFields, mk *MonthKey) {
	if a.dataType == DataEnrollment {
		sa, found := a.states[state]
		if !found {
			sa = &StateAggregate{State: state, Districts: make(map[string]struct{})}
			a.states[state] = sa
		}
		sa.Total += f.Total
		sa.Age0to5 += f.Age0to5
		sa.Age5to17 += f.Age5to17
		sa.Age18Plus += f.Age18Plus
		if district != "" {
			sa.Districts[district] = struct{}{}
		}
	}

	if mk == nil {
		return
	}

	b, found := a.monthly[*mk]
	if !found {
		b = &MonthlyBucket{State: mk.State, Year: mk.Year, Month: mk.Month}
		a.monthly[*mk] = b
	}
	switch a.dataType {
	case DataEnrollment:
		b.EnrolTotal += f.Total
		b.EnrolAge0to5 += f.Age0to5
		b.EnrolAge5to17 += f.Age5to17
		b.EnrolAge18Plus += f.Age18Plus
	case DataDemographic:
		b.DemoTotal += f.Total
		b.DemoAge5to17 += f.Age5to17
		b.DemoAge17Plus += f.Age17Plus
	case DataBiometric:
		b.BioTotal += f.Total
		b.BioAge5to17 += f.Age5to17
		b.BioAge17Plus += f.Age17Plus
	}
}

// States returns the per-state aggregates accumulated so far. Empty for the
// demographic and biometric data types.
func (a *Aggregator) States() map[string]*StateAggregate { return a.states }

// Monthly returns the per-month buckets accumulated so far.
func (a *Aggregator) Monthly() map[MonthKey]*MonthlyBucket { return a.monthly }
