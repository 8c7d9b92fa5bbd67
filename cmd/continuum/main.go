package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/continuum-pay/continuum/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "continuum",
		Short: "Payment continuation and status-polling toolkit",
		Long: `Continuum drives asynchronous payment flows to a single terminal outcome.
A payment that needs a 3DS challenge, a processor redirect or a status poll
is carried through every continuation round until it settles, fails or is
cancelled, with exactly one outcome reported per attempt.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewServeCmd(),
		commands.NewCheckoutCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
