package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/bridge"
	"github.com/srg/blemidi/internal/groutine"
	"github.com/srg/blemidi/internal/peripheral"
	"github.com/srg/blemidi/internal/slider"
)

const sessionHelp = `Commands:
  send <slider#> <value>      set a slider and send it
  cc <channel> <cc> <value>   send a raw Control Change (channel 1-16)
  sliders                     list sliders
  status                      show state
  stop | start                stop or restart advertising
  quit                        exit`

var (
	okColor   = color.New(color.FgGreen)
	infoColor = color.New(color.FgCyan)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

// session is the interactive loop of the advertise command: it prints engine notifications
// and executes line commands until quit, end of input or cancellation.
type session struct {
	bridge    *bridge.Bridge
	bank      *slider.Bank
	out       io.Writer
	logger    *logrus.Logger
	autoStart bool
	prompt    bool
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	groutine.Go(ctx, "stdin-reader", func(ctx context.Context) {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.WithError(err).Debug("stdin closed")
		}
	})

	notifications := s.bridge.Notifications()
	s.showPrompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()

		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			if err := s.onNotification(n); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.execute(line)
			if err != nil {
				errColor.Fprintf(s.out, "error: %s\n", err)
			}
			if quit {
				return nil
			}
			s.showPrompt()
		}
	}
}

func (s *session) showPrompt() {
	if s.prompt {
		fmt.Fprint(s.out, "> ")
	}
}

func (s *session) onNotification(n peripheral.Notification) error {
	switch n.Kind {
	case peripheral.NotifyRadioStateChanged:
		infoColor.Fprintf(s.out, "Bluetooth: %s\n", s.bridge.Status().Text())
		switch n.Radio {
		case peripheral.RadioPoweredOn:
			if s.autoStart {
				s.bridge.StartAdvertising()
			}
		case peripheral.RadioUnsupported, peripheral.RadioUnauthorized:
			return fmt.Errorf("%w: %s", ErrRadioUnavailable, n.Radio)
		}
	case peripheral.NotifyAdvertisingStarted:
		if n.Err != nil {
			errColor.Fprintf(s.out, "Advertising failed: %s\n", n.Err)
		} else {
			okColor.Fprintln(s.out, "Advertising...")
		}
	case peripheral.NotifyCentralConnected:
		okColor.Fprintf(s.out, "Connected: %s (%s)\n", n.Central.ShortID(), s.bridge.Status().ConnectionCountText())
	case peripheral.NotifyCentralDisconnected:
		warnColor.Fprintf(s.out, "Disconnected: %s (%s)\n", n.Central.ShortID(), s.bridge.Status().ConnectionCountText())
	}
	return nil
}

// execute runs one command line. quit reports whether the session should end.
func (s *session) execute(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "send":
		return false, s.send(fields[1:])
	case "cc":
		return false, s.controlChange(fields[1:])
	case "sliders":
		printSliders(s.out, s.bank)
	case "status":
		s.printStatus()
	case "start":
		s.bridge.StartAdvertising()
	case "stop":
		s.bridge.StopAdvertising()
		infoColor.Fprintln(s.out, "Advertising stopped")
	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, type \"help\"", fields[0])
	}
	return false, nil
}

func (s *session) send(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: send <slider#> <value>", ErrUsage)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slider number %q", args[0])
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}

	sl, ok := s.bank.At(index - 1)
	if !ok {
		return fmt.Errorf("no slider %d, %d configured", index, s.bank.Len())
	}
	sl = sl.WithValue(value)
	if err := sl.Validate(); err != nil {
		return err
	}
	s.bank.Update(sl)

	s.bridge.SendSlider(sl)
	s.reportSent()
	return nil
}

func (s *session) controlChange(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: cc <channel> <cc> <value>", ErrUsage)
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid number %q", a)
		}
		nums[i] = n
	}
	if nums[0] < slider.MinChannel || nums[0] > slider.MaxChannel {
		return fmt.Errorf("channel %d out of range %d-%d", nums[0], slider.MinChannel, slider.MaxChannel)
	}

	s.bridge.Send(nums[0]-1, nums[1], nums[2])
	s.reportSent()
	return nil
}

func (s *session) reportSent() {
	if s.bridge.ConnectionCount() == 0 {
		warnColor.Fprintln(s.out, "No devices connected, nothing sent")
	}
}

func (s *session) printStatus() {
	status := s.bridge.Status()
	fmt.Fprintf(s.out, "%s (%s)\n", status.Text(), status.ConnectionCountText())
	for _, c := range s.bridge.Centrals() {
		fmt.Fprintf(s.out, "  %s\n", c.ShortID())
	}
}
