package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/blemidi/internal/slider"
)

// slidersCmd represents the sliders command
var slidersCmd = &cobra.Command{
	Use:   "sliders",
	Short: "List the configured sliders",
	Long: `Lists the sliders loaded from the configuration file in send order.

Slider numbers printed here are the ones used by the advertise command's "send" command.
Without a configuration file a single default slider is listed.`,
	Args: cobra.NoArgs,
	RunE: runSliders,
}

func runSliders(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	bank, err := slider.LoadBank(cfg.Sliders)
	if err != nil {
		return err
	}

	printSliders(cmd.OutOrStdout(), bank)
	return nil
}

func printSliders(w io.Writer, bank *slider.Bank) {
	label := color.New(color.Bold)
	for i, s := range bank.List() {
		fmt.Fprintf(w, "%2d. %s  ch %-2d cc %-3d value %d\n", i+1, label.Sprint(s.Label), s.Channel, s.Controller, int(s.Value))
	}
}
