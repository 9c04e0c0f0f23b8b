package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/ethframe/internal/source"
)

var pcapCmd = &cobra.Command{
	Use:   "pcap FILE",
	Short: "Decode every frame of a pcap or pcapng file",
	Long: `Decode the Ethernet header of every frame in a capture file.

Both classic pcap and pcapng files are accepted; the link type must be
Ethernet. Frame timestamps are taken from the capture.

Examples:
  ethframe pcap trace.pcap
  ethframe pcap trace.pcapng --tagged-only -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPcap(cmd, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runPcap(cmd *cobra.Command, path string, out, errOut io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	src, err := source.OpenPcap(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return run(ctx, runOptions{
		cfg:        cfg,
		src:        src,
		sourceName: "pcap",
		out:        out,
		errOut:     errOut,
		stats:      printStats,
	})
}
