package consensus

import "github.com/grailbio/base/log"

// Stats summarizes a run.
type Stats struct {
	// Sources is the # of input sources parsed successfully.
	Sources int
	// SkippedSources is the # of input sources that failed to parse.
	SkippedSources int
	// Records is the total # of calls ingested.
	Records int
	// Masked is the # of calls dropped by the region mask.
	Masked int
	// PassedThreshold is the # of calls in groups that pass the caller
	// threshold, before the ancestor subtraction.
	PassedThreshold int
	// Surviving is the # of calls in groups that pass the caller threshold and
	// the ancestor subtraction.
	Surviving int
	// Unique is the # of distinct (sample, location) pairs among the surviving
	// calls.
	Unique int
	// Samples is the # of distinct samples ingested.
	Samples int
	// Tools is the # of distinct detectors ingested.
	Tools int
	// SamplesWithCalls is the # of samples with at least one surviving call.
	SamplesWithCalls int
	// MinCallers is the caller threshold used.
	MinCallers int
	// AncestorApplied is true if an ancestor sample was configured.
	AncestorApplied bool
	// AncestorLocations is the # of high-confidence ancestor locations.
	AncestorLocations int
	// AncestorRemoved is the # of (sample, location) groups removed because the
	// ancestor called the location.
	AncestorRemoved int
}

// Log prints the summary.
func (s Stats) Log() {
	log.Printf("Summary:")
	log.Printf("Input sources parsed: %d (%d skipped)", s.Sources, s.SkippedSources)
	log.Printf("Total calls processed: %d", s.Records)
	if s.Masked > 0 {
		log.Printf("Calls outside regions: %d", s.Masked)
	}
	log.Printf("Calls passing %d+ caller filter: %d", s.MinCallers, s.PassedThreshold)
	log.Printf("Unique locations after filtering: %d", s.Unique)
	log.Printf("Samples processed: %d (%d with calls)", s.Samples, s.SamplesWithCalls)
	log.Printf("Tools used: %d", s.Tools)
	if s.AncestorApplied {
		log.Printf("Ancestor locations filtered out: %d (%d sample locations removed)", s.AncestorLocations, s.AncestorRemoved)
		log.Printf("Calls remaining after ancestor filter: %d", s.Surviving)
	}
}
