package harvest

// Record is the persisted unit: one speech plus the package and granule
// metadata it was derived from. Every record is traceable to exactly one
// (package, granule) pair and carries non-empty text.
type Record struct {
	Date       string `json:"date"`
	PackageID  string `json:"package_id"`
	GranuleID  string `json:"granule_id"`
	Chamber    string `json:"chamber"`
	Page       string `json:"page,omitempty"`
	Title      string `json:"title"`
	Speaker    string `json:"speaker"`
	BioguideID string `json:"bioguide_id"`
	Text       string `json:"text"`
}

// RunStats aggregates counters for one harvest run. It is threaded through
// the engine and returned at completion; there is no process-wide state.
type RunStats struct {
	Packages int
	Granules int
	Speeches int
}
