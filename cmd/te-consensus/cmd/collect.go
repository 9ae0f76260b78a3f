package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/teconsensus/collect"
	"v.io/x/lib/cmdline"
)

func newCmdCollect() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "collect",
		Short: "Gather per-sample detector outputs into one directory",
		Long: `
Collect copies every sample_root/<sample>/nonredundant_vcfs/*.vcf file into
sample_root/<out-dir>, which can then be given to the filter command. Files
already present in the destination are not overwritten.
`,
		ArgsName: "sample_root",
	}
	opts := collect.DefaultOpts
	cmd.Flags.StringVar(&opts.OutputDir, "out-dir", opts.OutputDir, "Name of the destination directory, relative to sample_root")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Max # of concurrent copies. 0 means unbounded")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("collect takes one sample root, but got %v", argv)
		}
		_, err := collect.Collect(context.Background(), argv[0], opts)
		return err
	})
	return cmd
}
