// Package cli wires the heatsink commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heatsink/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "heatsink",
	Short: "CPU heat sink junction temperature estimator",
	Long: `heatsink estimates the steady-state junction temperature of a processor
cooled by a finned heat sink with a thermal resistance network, and refines
the estimate with a small learned residual correction.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path(cfgPath)
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		return cfg.SetupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	rootCmd.AddCommand(serveCmd, trainCmd, analyzeCmd, runsCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
