package consensus

import (
	"fmt"

	"github.com/grailbio/teconsensus/interval"
)

// Mode selects which result tables Emit writes.
type Mode string

const (
	// ModeSample writes one table per sample.
	ModeSample Mode = "sample"
	// ModeCombined writes the "all filtered calls" and "unique locations"
	// tables spanning all samples.
	ModeCombined Mode = "combined"
	// ModeBoth writes both of the above.
	ModeBoth Mode = "both"
)

// ParseMode parses a -mode flag value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSample, ModeCombined, ModeBoth:
		return m, nil
	}
	return "", &ConfigError{Reason: fmt.Sprintf("unknown mode %q; expect sample, combined or both", s)}
}

// Opts configures a run.
type Opts struct {
	// MinCallers is the minimum number of detector records that must agree on a
	// (sample, location) for it to be kept. Must be >= 1.
	MinCallers int
	// AncestorSample, if nonempty, names the sample whose confidently called
	// locations are removed from every other sample.
	AncestorSample string
	// Namer derives sample and tool names from source names. Defaults to
	// DefaultNamer.
	Namer Namer
	// Parallelism bounds the number of sources parsed concurrently. 0 means
	// runtime.NumCPU().
	Parallelism int
	// Regions, if non-nil, restricts the calls to the given genomic regions
	// before grouping.
	Regions *interval.BEDUnion
	// ExcludeRegions inverts Regions: the calls inside them are dropped.
	ExcludeRegions bool

	// Output options.

	// Mode selects the tables written by Emit.
	Mode Mode
	// OutputDir is the directory of per-sample tables.
	OutputDir string
	// OutputPrefix is the path prefix of the combined tables.
	OutputPrefix string
	// Bgzip causes the tables to be BGZF-compressed, with a ".gz" suffix.
	Bgzip bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	MinCallers:   3,
	Namer:        DefaultNamer,
	Mode:         ModeBoth,
	OutputPrefix: "filtered_te",
}

// Validate checks the options for consistency.
func (o *Opts) Validate() error {
	if o.MinCallers < 1 {
		return &ConfigError{Reason: fmt.Sprintf("min callers must be >= 1, but got %d", o.MinCallers)}
	}
	if o.Parallelism < 0 {
		return &ConfigError{Reason: fmt.Sprintf("parallelism must be >= 0, but got %d", o.Parallelism)}
	}
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.ExcludeRegions && o.Regions == nil {
		return &ConfigError{Reason: "region exclusion requested without regions"}
	}
	if (o.Mode == ModeSample || o.Mode == ModeBoth) && o.OutputDir == "" {
		return &ConfigError{Reason: "output directory not set"}
	}
	if (o.Mode == ModeCombined || o.Mode == ModeBoth) && o.OutputPrefix == "" {
		return &ConfigError{Reason: "output prefix not set"}
	}
	return nil
}

func (o *Opts) namer() Namer {
	if o.Namer == nil {
		return DefaultNamer
	}
	return o.Namer
}
