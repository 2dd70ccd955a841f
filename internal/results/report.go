package results

// Report is a batch together with its summary, ready for a reporter.
type Report struct {
	Batch   *Batch  `json:"batch"`
	Summary Summary `json:"summary"`
}

// NewReport summarises a batch.
func NewReport(b *Batch) *Report {
	return &Report{Batch: b, Summary: Summarize(b.Runs)}
}
