package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/output"
)

var fetchIconsCmd = &cobra.Command{
	Use:   "fetch-icons [example|file|dir]...",
	Short: "Download the icons the diagrams use",
	Long: `Downloads every icon the selected diagrams reference into the icon
directory. Icons already present are kept unless --refresh-icons is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx, cmd, args, nil)
		if err != nil {
			return err
		}
		jobs, err := s.jobs()
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		var icons []assets.Asset
		for _, j := range jobs {
			for _, a := range j.Icons {
				if !seen[a.Name] {
					seen[a.Name] = true
					icons = append(icons, a)
				}
			}
		}

		paths, err := s.fetcher.FetchAll(ctx, icons)
		output.PrintAssets(cmd.OutOrStdout(), paths)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchIconsCmd)
}
