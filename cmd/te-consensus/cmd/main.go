package cmd

import (
	golog "log"

	"v.io/x/lib/cmdline"
)

// Run is the entry point of the te-consensus binary.
func Run() {
	golog.SetFlags(golog.Ldate | golog.Ltime | golog.Lmicroseconds | golog.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "te-consensus",
		Short:    "Consensus filtering of transposable element insertion calls",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdFilter(),
			newCmdCollect(),
		},
	}
}
