package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blemidi",
	Short: "BLE MIDI peripheral controller",
	Long: `Turns this host into a Bluetooth Low Energy MIDI peripheral:

- Advertise the standard BLE MIDI service and accept subscriptions from any number of centrals
- Send MIDI Control Change messages from configured sliders or raw channel/controller/value
- Encode BLE-MIDI packets for inspection

Sliders and the advertised name are read from a YAML file given with --config.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// main() prints errors itself
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(slidersCmd)
	rootCmd.AddCommand(advertiseCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.SetVersionTemplate(fmt.Sprintf("blemidi {{.Version}} (commit %s, built %s)\n", commit, date))
}
