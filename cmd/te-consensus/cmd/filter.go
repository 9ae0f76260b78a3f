package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/teconsensus/consensus"
	"v.io/x/lib/cmdline"
)

const filterLong = `
Filter reads every *.vcf and *.vcf.gz file in input_dir. Each file holds the
calls of one detector on one sample; the sample and detector names are taken
from the filename (see -sample-pattern and -tool-pattern). A (sample,
location) is kept if at least -min-callers records support it. If -ancestor
is set, the locations confidently called in the ancestor sample are removed
from all other samples.

Settings are read, in increasing order of precedence, from the defaults, the
YAML file given by -config, TECONSENSUS_* environment variables (e.g.
TECONSENSUS_MIN_CALLERS), and the flags given on the command line.
`

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Keep the insertion calls supported by several detectors",
		Long:     filterLong,
		ArgsName: "input_dir",
	}
	var fc Config
	registerFlags(&cmd.Flags, &fc)
	configFlag := cmd.Flags.String("config", "", "YAML file of settings. Flags given on the command line take precedence")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("filter takes one input directory, but got %v", argv)
		}
		ctx := context.Background()
		cfg, err := LoadConfig(ctx, *configFlag)
		if err != nil {
			return err
		}
		applyFlags(&cmd.Flags, &cfg, fc)
		return filter(ctx, argv[0], cfg)
	})
	return cmd
}

func filter(ctx context.Context, inputDir string, cfg Config) error {
	opts, err := cfg.Opts(ctx)
	if err != nil {
		return err
	}
	log.Printf("Input directory: %s", inputDir)
	log.Printf("Minimum callers: %d", opts.MinCallers)
	if opts.AncestorSample != "" {
		log.Printf("Ancestor sample: %s", opts.AncestorSample)
	}
	res, err := consensus.Run(ctx, inputDir, opts)
	if err != nil {
		return err
	}
	if _, err := consensus.Emit(ctx, res); err != nil {
		return err
	}
	res.Stats.Log()
	return nil
}
