package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/blemidi/internal/midi"
	"github.com/srg/blemidi/internal/slider"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a Control Change as a BLE-MIDI packet",
	Long: `Prints the 5-byte BLE-MIDI packet for one Control Change message as hex.

The channel is given as shown to users (1-16). Controller and value are clamped to 0-127.
Without --timestamp the current time is used.

Examples:
  # Volume (CC 7) to 100 on channel 1 at t=0
  blemidi encode --channel 1 --cc 7 --value 100 --timestamp 0`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

var (
	encodeChannel    int
	encodeController int
	encodeValue      int
	encodeTimestamp  int64
)

func init() {
	encodeCmd.Flags().IntVar(&encodeChannel, "channel", slider.MinChannel, "MIDI channel (1-16)")
	encodeCmd.Flags().IntVar(&encodeController, "cc", slider.MinController, "Controller number (0-127)")
	encodeCmd.Flags().IntVar(&encodeValue, "value", 0, "Controller value (0-127)")
	encodeCmd.Flags().Int64Var(&encodeTimestamp, "timestamp", -1, "Timestamp in milliseconds; current time when negative")
}

func runEncode(cmd *cobra.Command, _ []string) error {
	if encodeChannel < slider.MinChannel || encodeChannel > slider.MaxChannel {
		return fmt.Errorf("channel %d out of range %d-%d", encodeChannel, slider.MinChannel, slider.MaxChannel)
	}

	ts := encodeTimestamp
	if ts < 0 {
		ts = midi.SystemClock{}.NowMillis()
	}

	packet := midi.Encode(encodeChannel-1, encodeController, encodeValue, ts)
	fmt.Fprintln(cmd.OutOrStdout(), packet.String())
	return nil
}
