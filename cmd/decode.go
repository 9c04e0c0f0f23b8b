package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/ethframe/internal/source"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [HEX...]",
	Short: "Decode hex-encoded Ethernet frames",
	Long: `Decode one Ethernet frame per hex string.

Frames are taken from the arguments, or, when none are given, from
--input (one frame per line, '#' comments allowed). An --input of '-'
or no input at all reads standard input.

Examples:
  ethframe decode 0102030405060a0b0c0d0e0f810000100800
  ethframe decode --input frames.txt -o text
  cat frames.txt | ethframe decode --vlan 16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var decodeInput string

func init() {
	decodeCmd.Flags().StringVarP(&decodeInput, "input", "i", "",
		"file with one hex frame per line ('-' for stdin)")
}

func runDecode(cmd *cobra.Command, args []string, stdin io.Reader, out, errOut io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	src, err := openHexSource(args, decodeInput, stdin)
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
		sourceName: "hex",
		out:        out,
		errOut:     errOut,
		stats:      printStats,
	})
}

func openHexSource(args []string, input string, stdin io.Reader) (*source.HexSource, error) {
	if len(args) > 0 {
		if input != "" {
			return nil, fmt.Errorf("--input cannot be combined with frame arguments")
		}
		return source.NewHexSourceFromStrings(args), nil
	}

	if input == "" || input == "-" {
		// Don't close the caller's stdin.
		return source.NewHexSource(io.NopCloser(stdin)), nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return source.NewHexSource(f), nil
}
