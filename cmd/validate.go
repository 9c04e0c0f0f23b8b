package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/ethframe/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and check it without decoding anything.

Examples:
  ethframe validate -c /etc/ethframe/config.yml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return fmt.Errorf("--config is required")
		}
		return runValidate(configFile, cmd.OutOrStdout())
	},
}

func runValidate(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(out, "INVALID: %v\n", err)
		return err
	}

	fmt.Fprintf(out, "VALID: output=%s filter(tagged_only=%t vlan_id=%d) kafka=%t metrics=%t\n",
		cfg.Output.Format,
		cfg.Filter.TaggedOnly,
		cfg.Filter.VLANID,
		cfg.Reporters.Kafka.Enabled,
		cfg.Metrics.Enabled,
	)
	return nil
}
