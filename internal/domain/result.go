package domain

// Outcome classifies what happened to a single upstream record during an
// import batch. Per-record problems are absorbed as skips; they never abort
// the batch.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// RecordOutcome is the result of applying one upstream record.
type RecordOutcome struct {
	Outcome    Outcome
	ExternalID string
	// SkipReason is set only when Outcome is OutcomeSkipped.
	SkipReason string
	// Defaulted lists fields that were absent upstream and filled with
	// zero-equivalent defaults by the mapper.
	Defaulted []string
}

func Created(externalID string, defaulted []string) RecordOutcome {
	return RecordOutcome{Outcome: OutcomeCreated, ExternalID: externalID, Defaulted: defaulted}
}

func Updated(externalID string, defaulted []string) RecordOutcome {
	return RecordOutcome{Outcome: OutcomeUpdated, ExternalID: externalID, Defaulted: defaulted}
}

func Skipped(externalID, reason string) RecordOutcome {
	return RecordOutcome{Outcome: OutcomeSkipped, ExternalID: externalID, SkipReason: reason}
}

// BatchResult aggregates outcomes for one committed batch.
type BatchResult struct {
	Created int
	Updated int
	Failed  int
	Errors  []string
}

// Record folds one outcome into the batch tally.
func (b *BatchResult) Record(r RecordOutcome) {
	switch r.Outcome {
	case OutcomeCreated:
		b.Created++
	case OutcomeUpdated:
		b.Updated++
	case OutcomeSkipped:
		// A skip without a reason is deliberate, e.g. a protected order,
		// and does not count against the run.
		if r.SkipReason != "" {
			b.Failed++
			b.Errors = append(b.Errors, r.ExternalID+": "+r.SkipReason)
		}
	}
}
