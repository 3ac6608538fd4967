package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "assistgate",
		Short:   "assistgate — authenticating proxy for vector-assistant APIs",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newAuditCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
