package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/srg/blemidi/bridge"
	"github.com/srg/blemidi/internal/midi"
	"github.com/srg/blemidi/internal/peripheral"
	goble "github.com/srg/blemidi/internal/peripheral/go-ble"
	"github.com/srg/blemidi/internal/slider"
	"golang.org/x/term"
)

// advertiseCmd represents the advertise command
var advertiseCmd = &cobra.Command{
	Use:   "advertise",
	Short: "Run as a BLE MIDI peripheral",
	Long: `Publishes the BLE MIDI service, advertises it and streams Control Change messages to every
subscribed central.

Commands are read from stdin, one per line:
  send <slider#> <value>      Set a configured slider and send it
  cc <channel> <cc> <value>   Send a raw Control Change (channel 1-16)
  status                      Show radio, advertising and connection state
  stop | start                Stop or restart advertising
  quit                        Exit

Examples:
  # Advertise with the default single slider
  blemidi advertise

  # Advertise with sliders and a custom name from a config file
  blemidi advertise --config sliders.yaml`,
	Args: cobra.NoArgs,
	RunE: runAdvertise,
}

var advertiseNoStart bool

func init() {
	advertiseCmd.Flags().BoolVar(&advertiseNoStart, "no-start", false, "Do not start advertising until the \"start\" command")
}

func runAdvertise(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	bank, err := slider.LoadBank(cfg.Sliders)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack := goble.NewStack(&goble.Options{AdvertiseSettle: cfg.AdvertiseSettle}, logger)
	engine := peripheral.NewEngine(stack, &peripheral.Options{
		LocalName:          cfg.LocalName,
		EventBuffer:        cfg.EventBuffer,
		NotificationBuffer: cfg.NotificationBuffer,
	}, logger)

	if err := engine.Start(ctx); err != nil {
		return err
	}

	b := bridge.New(engine, midi.SystemClock{}, logger)
	defer func() {
		if err := b.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close BLE stack")
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "BLE MIDI peripheral %q, %d slider(s). Type \"help\" for commands.\n", cfg.LocalName, bank.Len())

	s := &session{
		bridge:    b,
		bank:      bank,
		out:       cmd.OutOrStdout(),
		logger:    logger,
		autoStart: !advertiseNoStart,
		prompt:    isTerminal(os.Stdin),
	}
	return s.run(ctx, cmd.InOrStdin())
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
