package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/infra-diagrams/pkg/output"
)

var rootCmd = &cobra.Command{
	Use:   "diagrams",
	Short: "Render infrastructure topology diagrams",
	Long: `diagrams builds architecture diagrams from the built-in examples or from
YAML and HCL definition files, lays them out with Graphviz and writes the
images to the output directory.

Settings are read from diagrams.toml, DIAGRAMS_* environment variables and
flags, in increasing order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands). Defaults mirror
	// config.Defaults; only flags that are set override lower layers.
	f := rootCmd.PersistentFlags()
	f.StringP("config", "c", "", "Config file (default diagrams.toml if present)")
	f.StringP("output-dir", "o", ".", "Directory for rendered diagrams")
	f.StringP("format", "f", "png", "Output format: png, svg, jpg, pdf or dot")
	f.String("engine", "dot", "Graphviz layout binary")
	f.String("icon-dir", "logos", "Directory for downloaded icons")
	f.Bool("refresh-icons", false, "Download icons even if they exist locally")
	f.Duration("fetch-timeout", 10*time.Second, "Timeout per icon download")
	f.Duration("render-timeout", time.Minute, "Timeout per layout engine run")
	f.String("publish", "", "Upload rendered diagrams to s3://bucket/prefix")
	f.String("s3-region", "", "AWS region for publishing")
	f.String("s3-endpoint", "", "Custom S3 endpoint, e.g. a local MinIO")
	f.Bool("log-json", false, "Log as JSON instead of compact text")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
}
