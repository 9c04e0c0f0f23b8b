// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/ethframe/internal/config"
)

var (
	// Global flags
	configFile  string
	format      string
	taggedOnly  bool
	vlanID      int
	stopOnError bool
	printStats  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ethframe",
	Short: "ethframe - Ethernet L2 header decoder",
	Long: `ethframe decodes Ethernet II frame headers, including 802.1Q single
tags and 802.1ad / QinQ double tags, from hex strings or capture files.

Decoded headers are written to stdout as JSON, YAML or text lines and can
optionally be published to Kafka.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path")
	pf.StringVarP(&format, "format", "o", "", "output format: json, yaml or text (overrides output.format)")
	pf.BoolVar(&taggedOnly, "tagged-only", false, "only decode VLAN tagged frames")
	pf.IntVar(&vlanID, "vlan", -1, "only decode frames whose outer VLAN ID matches")
	pf.BoolVar(&stopOnError, "stop-on-error", false, "stop at the first frame that fails to decode")
	pf.BoolVar(&printStats, "stats", false, "print decode statistics to stderr when done")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(pcapCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig loads the config file and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if flags.Changed("tagged-only") {
		cfg.Filter.TaggedOnly = taggedOnly
	}
	if flags.Changed("vlan") {
		cfg.Filter.VLANID = vlanID
	}
	if flags.Changed("stop-on-error") {
		cfg.Pipeline.StopOnError = stopOnError
	}

	// Flags may have introduced invalid values.
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}
