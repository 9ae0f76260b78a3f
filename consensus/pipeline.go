package consensus

import (
	"context"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// SampleResult holds the calls of one sample that survived filtering.
type SampleResult struct {
	Sample string
	// Records lists the surviving calls, all detectors included.
	Records []CallRecord
	// Unique holds the first surviving call at each location.
	Unique []CallRecord
}

// Result is the outcome of a run.
type Result struct {
	// Samples lists the samples with at least one surviving call, in the order
	// they were first seen.
	Samples []SampleResult
	// All lists the surviving calls of all samples.
	All []CallRecord
	// Unique holds the first surviving call for each (sample, location).
	Unique []CallRecord
	// Columns is the output header.
	Columns []string
	// AncestorLocations is the set of locations removed from non-ancestor
	// samples.
	AncestorLocations LocationSet
	Stats             Stats
	// Opts are the options the result was computed with, defaults resolved.
	Opts Opts
}

// OutputColumns appends the derived sample, tool and location columns to
// cols unless cols already has them. The result has no duplicate names.
func OutputColumns(cols []string) []string {
	seen := make(map[string]bool, len(cols)+3)
	out := make([]string, 0, len(cols)+3)
	for _, c := range append(append([]string(nil), cols...), ColSample, ColTool, ColLocation) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Filter runs the consensus stages over an ingested callset: group by (sample,
// location), drop groups below opts.MinCallers, subtract the ancestor's
// locations, and deduplicate.
func Filter(cs *Callset, opts Opts) *Result {
	res := &Result{
		Columns: OutputColumns(cs.Columns),
		Opts:    opts,
		Stats: Stats{
			Sources:         len(cs.Sources),
			SkippedSources:  len(cs.Skipped),
			Records:         len(cs.Records),
			MinCallers:      opts.MinCallers,
			AncestorApplied: opts.AncestorSample != "",
		},
	}

	samples, nTools := samplesAndTools(cs.Records)
	sampleSet := make(map[string]bool, len(samples))
	for _, s := range samples {
		sampleSet[s] = true
	}
	res.Stats.Samples = len(samples)
	res.Stats.Tools = nTools

	grouped := GroupBySampleLocation(cs.Records)
	passed := FilterByCallers(grouped, opts.MinCallers)
	log.Printf("Groups passing %d+ caller filter: %d of %d", opts.MinCallers, passed.Len(), grouped.Len())
	res.Stats.PassedThreshold = len(passed.Records())

	res.AncestorLocations = AncestorLocations(grouped, opts.AncestorSample, opts.MinCallers)
	if opts.AncestorSample != "" {
		if !sampleSet[opts.AncestorSample] {
			log.Error.Printf("Ancestor sample %s has no calls; nothing to subtract", opts.AncestorSample)
		}
		log.Printf("Found %d high-confidence ancestral locations to filter out", len(res.AncestorLocations))
	}
	passed, res.Stats.AncestorRemoved = SubtractAncestor(passed, opts.AncestorSample, res.AncestorLocations)
	res.Stats.AncestorLocations = len(res.AncestorLocations)

	res.All = passed.Records()
	res.Unique = Dedup(res.All, BySampleLocation)
	res.Stats.Surviving = len(res.All)
	res.Stats.Unique = len(res.Unique)

	bySample := map[string][]CallRecord{}
	for _, grp := range passed.Groups() {
		bySample[grp.Sample] = append(bySample[grp.Sample], grp.Records...)
	}
	for _, s := range samples {
		recs := bySample[s]
		if len(recs) == 0 {
			log.Error.Printf("No calls passed filtering for %s", s)
			continue
		}
		res.Samples = append(res.Samples, SampleResult{
			Sample:  s,
			Records: recs,
			Unique:  Dedup(recs, ByLocation),
		})
	}
	res.Stats.SamplesWithCalls = len(res.Samples)
	return res
}

// samplesAndTools returns the samples of records in first-seen order and the
// number of distinct tools.
func samplesAndTools(records []CallRecord) ([]string, int) {
	var samples []string
	seen := map[string]bool{}
	tools := map[string]bool{}
	for _, r := range records {
		if !seen[r.Sample] {
			seen[r.Sample] = true
			samples = append(samples, r.Sample)
		}
		tools[r.Tool] = true
	}
	return samples, len(tools)
}

// ResolveDefaults fills in the options derived from the input directory.
func (o *Opts) ResolveDefaults(inputDir string) {
	if o.OutputDir == "" {
		o.OutputDir = file.Join(inputDir, "filtered_results")
	}
	if o.Namer == nil {
		o.Namer = DefaultNamer
	}
}

// Run ingests the detector outputs found in inputDir and filters them. It
// writes nothing; see Emit.
func Run(ctx context.Context, inputDir string, opts Opts) (*Result, error) {
	if inputDir == "" {
		return nil, &ConfigError{Reason: "input directory not set"}
	}
	opts.ResolveDefaults(inputDir)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkDir(inputDir); err != nil {
		return nil, err
	}
	paths, err := ListSources(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &EmptyInputError{Reason: "no VCF files found in " + inputDir}
	}
	cs, err := Ingest(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	// Counted before masking: a sample with every call masked still counts.
	samples, nTools := samplesAndTools(cs.Records)
	masked := 0
	if opts.Regions != nil {
		n := len(cs.Records)
		cs.Records = MaskRegions(cs.Records, opts.Regions, opts.ExcludeRegions)
		masked = n - len(cs.Records)
		log.Printf("Region mask kept %d of %d calls", len(cs.Records), n)
	}
	res := Filter(cs, opts)
	res.Stats.Masked = masked
	res.Stats.Records += masked
	res.Stats.Samples = len(samples)
	res.Stats.Tools = nTools
	return res, nil
}

// checkDir verifies that a local input directory exists. Remote paths (e.g.
// s3://) are checked when listed.
func checkDir(dir string) error {
	if scheme, _, err := file.ParsePath(dir); err != nil || scheme != "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return &ConfigError{Reason: "input directory does not exist: " + dir, Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Reason: "input path is not a directory: " + dir}
	}
	return nil
}
