// Command xwr captures and processes raw data from TI mmWave radars
// paired with a DCA1000EVM capture card.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radarlab/goxwr"
	"github.com/radarlab/goxwr/logging"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:           "xwr",
	Short:         "TI mmWave radar capture tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "xwr.yaml", "capture configuration file")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
}

// setup loads the configuration and installs the process logger.
func setup() (*goxwr.Config, logging.Logger, error) {
	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(flagLogFormat)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(level, format, os.Stderr)
	logging.SetDefault(log)

	cfg, err := goxwr.LoadConfig(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xwr:", err)
		os.Exit(1)
	}
}
