package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	flag "github.com/ogier/pflag"
)

// ParseArguments parses a command's positional arguments, using pflag only
// for its -h/--help handling (blocksync and blocksync-agent define no named
// flags of their own). It prints usage and terminates the process on a
// parse error or a positional count outside [min, max].
func ParseArguments(name, usage string, args []string, min, max int) []string {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(ioutil.Discard)

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fmt.Fprint(os.Stdout, usage)
			Die(false)
		}
		Error(err)
		fmt.Fprint(os.Stderr, usage)
		Die(true)
	}

	positional := flags.Args()
	if len(positional) < min || len(positional) > max {
		Error(fmt.Errorf("invalid number of positional arguments"))
		fmt.Fprint(os.Stderr, usage)
		Die(true)
	}

	return positional
}
