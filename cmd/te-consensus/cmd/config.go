package cmd

import (
	"context"
	"flag"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/teconsensus/consensus"
	"github.com/grailbio/teconsensus/interval"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig,
// e.g. TECONSENSUS_MIN_CALLERS.
const EnvPrefix = "TECONSENSUS"

// Config holds the settings of the filter command. Values are layered:
// defaults, then the YAML file, then the environment, then the flags given
// on the command line. The environment variable of a field is EnvPrefix, an
// underscore, and the field name in upper snake case, e.g.
// TECONSENSUS_OUT_DIR.
type Config struct {
	MinCallers     int    `yaml:"min_callers" split_words:"true"`
	Ancestor       string `yaml:"ancestor" split_words:"true"`
	Prefix         string `yaml:"prefix" split_words:"true"`
	OutDir         string `yaml:"out_dir" split_words:"true"`
	Mode           string `yaml:"mode" split_words:"true"`
	Bgzip          bool   `yaml:"bgzip" split_words:"true"`
	SamplePattern  string `yaml:"sample_pattern" split_words:"true"`
	ToolPattern    string `yaml:"tool_pattern" split_words:"true"`
	Regions        string `yaml:"regions" split_words:"true"`
	Region         string `yaml:"region" split_words:"true"`
	ExcludeRegions bool   `yaml:"exclude_regions" split_words:"true"`
	Parallelism    int    `yaml:"parallelism" split_words:"true"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		MinCallers:    consensus.DefaultOpts.MinCallers,
		Prefix:        consensus.DefaultOpts.OutputPrefix,
		Mode:          string(consensus.DefaultOpts.Mode),
		SamplePattern: consensus.DefaultSamplePattern,
		ToolPattern:   consensus.DefaultToolPattern,
	}
}

// LoadConfig returns the default config overlaid with the YAML file at path
// (if path is nonempty) and then with the environment.
func LoadConfig(ctx context.Context, path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := readYAML(ctx, path, &cfg); err != nil {
			return cfg, &consensus.ConfigError{Reason: "read config " + path, Err: err}
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, &consensus.ConfigError{Reason: "environment", Err: err}
	}
	return cfg, nil
}

func readYAML(ctx context.Context, path string, cfg *Config) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err = yaml.NewDecoder(in.Reader(ctx)).Decode(cfg); err == io.EOF {
		// Empty file.
		err = nil
	}
	return err
}

// registerFlags binds the filter flags to fc. The flag defaults are those of
// DefaultConfig; they only matter for the help text since unset flags never
// override the loaded config.
func registerFlags(fs *flag.FlagSet, fc *Config) {
	def := DefaultConfig()
	fs.IntVar(&fc.MinCallers, "min-callers", def.MinCallers, "Minimum number of detector calls at a location for it to be kept")
	fs.StringVar(&fc.Ancestor, "ancestor", def.Ancestor, "Name of the ancestor sample whose locations are removed from all other samples")
	fs.StringVar(&fc.Prefix, "prefix", def.Prefix, "Path prefix of the combined output tables")
	fs.StringVar(&fc.OutDir, "out-dir", def.OutDir, "Directory of the per-sample tables. Defaults to <input_dir>/filtered_results")
	fs.StringVar(&fc.Mode, "mode", def.Mode, "Tables to write: sample, combined, or both")
	fs.BoolVar(&fc.Bgzip, "bgzip", def.Bgzip, "BGZF-compress the output tables")
	fs.StringVar(&fc.SamplePattern, "sample-pattern", def.SamplePattern, "Regexp whose first group extracts the sample name from an input filename")
	fs.StringVar(&fc.ToolPattern, "tool-pattern", def.ToolPattern, "Regexp whose first group extracts the tool name from an input filename")
	fs.StringVar(&fc.Regions, "regions", def.Regions, "BED file restricting the calls considered")
	fs.StringVar(&fc.Region, "region", def.Region, `Comma-separated list of regions restricting the calls considered.
Each region is 'chr', 'chr:pos' or 'chr:begin-end' (1-based, closed).`)
	fs.BoolVar(&fc.ExcludeRegions, "exclude-regions", def.ExcludeRegions, "Drop the calls inside the regions instead of keeping them")
	fs.IntVar(&fc.Parallelism, "parallelism", def.Parallelism, "Max # of input files parsed concurrently. 0 means the number of CPUs")
}

// applyFlags copies into cfg the fields of fc whose flags were set on the
// command line.
func applyFlags(fs *flag.FlagSet, cfg *Config, fc Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-callers":
			cfg.MinCallers = fc.MinCallers
		case "ancestor":
			cfg.Ancestor = fc.Ancestor
		case "prefix":
			cfg.Prefix = fc.Prefix
		case "out-dir":
			cfg.OutDir = fc.OutDir
		case "mode":
			cfg.Mode = fc.Mode
		case "bgzip":
			cfg.Bgzip = fc.Bgzip
		case "sample-pattern":
			cfg.SamplePattern = fc.SamplePattern
		case "tool-pattern":
			cfg.ToolPattern = fc.ToolPattern
		case "regions":
			cfg.Regions = fc.Regions
		case "region":
			cfg.Region = fc.Region
		case "exclude-regions":
			cfg.ExcludeRegions = fc.ExcludeRegions
		case "parallelism":
			cfg.Parallelism = fc.Parallelism
		}
	})
}

// Opts converts the config to consensus options. It loads the region mask,
// if any. The result is validated by consensus.Run once the input directory
// is known.
func (c Config) Opts(ctx context.Context) (consensus.Opts, error) {
	opts := consensus.DefaultOpts
	opts.MinCallers = c.MinCallers
	opts.AncestorSample = c.Ancestor
	opts.OutputPrefix = c.Prefix
	opts.OutputDir = c.OutDir
	opts.Bgzip = c.Bgzip
	opts.Parallelism = c.Parallelism
	opts.ExcludeRegions = c.ExcludeRegions

	mode, err := consensus.ParseMode(c.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	if opts.Namer, err = consensus.NewPatternNamer(c.SamplePattern, c.ToolPattern); err != nil {
		return opts, err
	}

	var bedOpts interval.NewBEDOpts
	switch {
	case c.Regions != "" && c.Region != "":
		return opts, &consensus.ConfigError{Reason: "regions and region are mutually exclusive"}
	case c.Regions != "":
		if opts.Regions, err = interval.NewBEDUnionFromPath(ctx, c.Regions, bedOpts); err != nil {
			return opts, &consensus.ConfigError{Reason: "load regions " + c.Regions, Err: err}
		}
	case c.Region != "":
		if opts.Regions, err = interval.NewBEDUnionFromRegions(strings.Split(c.Region, ","), bedOpts); err != nil {
			return opts, &consensus.ConfigError{Reason: "parse region " + c.Region, Err: err}
		}
	case c.ExcludeRegions:
		return opts, &consensus.ConfigError{Reason: "exclude-regions requires regions or region"}
	}
	return opts, nil
}
