package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/infra-diagrams/pkg/definition"
	"github.com/ritzau/infra-diagrams/pkg/output"
	"github.com/ritzau/infra-diagrams/pkg/topology"
)

var listCmd = &cobra.Command{
	Use:   "list [file|dir]...",
	Short: "List the built-in examples and the diagrams in definition files",
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []output.Entry
		for _, e := range topology.Examples() {
			entries = append(entries, output.Entry{Name: e.Name, Title: e.Title, Source: "built-in"})
		}

		if len(args) > 0 {
			defs, err := definition.Load(args...)
			if err != nil {
				return err
			}
			for _, d := range defs {
				entries = append(entries, output.Entry{Name: d.FileName(), Title: d.Title, Source: d.Source})
			}
		}

		output.PrintList(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
