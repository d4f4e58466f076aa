package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/vito/twentythousandtonnesofcrudeoil"

	"github.com/lookout-ci/lookout/lookoutcmd"
)

func main() {
	cmd := &lookoutcmd.LookoutCommand{}

	parser := flags.NewParser(cmd, flags.HelpFlag|flags.PassDoubleDash)
	parser.NamespaceDelimiter = "-"

	twentythousandtonnesofcrudeoil.TheEnvironmentIsPerfectlySafe(parser, "LOOKOUT_")

	args, err := parser.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = cmd.Execute(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
