package main

import (
	"fmt"

	"github.com/ZaguanLabs/gotlui"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "%s %s\n", gotlui.Name, gotlui.Version)
			if gotlui.GitCommit != "unknown" && gotlui.GitCommit != "" {
				fmt.Fprintf(a.stdout, "  commit:  %s\n", gotlui.GitCommit)
			}
			if gotlui.BuildDate != "unknown" && gotlui.BuildDate != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", gotlui.BuildDate)
			}
		},
	}
}
