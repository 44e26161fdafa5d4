// Package slider holds the user-facing Control Change slider model that feeds the bridge.
//
// Channels are 1..16 and controller numbers 1..127 as shown to the user; Wire converts them
// to the 0-based ranges the codec expects.
package slider

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	DefaultLabel = "CC Value"

	MinChannel    = 1
	MaxChannel    = 16
	MinController = 1
	MaxController = 127
	MaxValue      = 127
)

// Slider is one configured Control Change slider
type Slider struct {
	ID         uuid.UUID
	Label      string
	Channel    int     // 1-16
	Controller int     // 1-127
	Value      float64 // 0-127
}

// New creates a slider with a fresh ID. An empty label becomes DefaultLabel.
func New(label string, channel, controller int) Slider {
	if label == "" {
		label = DefaultLabel
	}
	return Slider{
		ID:         uuid.New(),
		Label:      label,
		Channel:    channel,
		Controller: controller,
	}
}

// Default returns the slider a new bank starts with.
func Default() Slider {
	return New(DefaultLabel, MinChannel, MinController)
}

// Wire returns channel, controller and value in codec ranges (0-15, 0-127, 0-127).
// Out-of-range fields are clamped; the value is rounded down.
func (s Slider) Wire() (channel, controller, value int) {
	channel = clamp(s.Channel-1, 0, MaxChannel-1)
	controller = clamp(s.Controller, 0, MaxController)
	value = clamp(int(math.Floor(s.Value)), 0, MaxValue)
	return channel, controller, value
}

// WithValue returns a copy of s with Value set.
func (s Slider) WithValue(v float64) Slider {
	s.Value = v
	return s
}

// Validate reports user-facing range violations.
func (s Slider) Validate() error {
	if s.Channel < MinChannel || s.Channel > MaxChannel {
		return fmt.Errorf("slider %q: channel %d out of range %d-%d", s.Label, s.Channel, MinChannel, MaxChannel)
	}
	if s.Controller < MinController || s.Controller > MaxController {
		return fmt.Errorf("slider %q: controller %d out of range %d-%d", s.Label, s.Controller, MinController, MaxController)
	}
	if s.Value < 0 || s.Value > MaxValue {
		return fmt.Errorf("slider %q: value %g out of range 0-%d", s.Label, s.Value, MaxValue)
	}
	return nil
}

func (s Slider) String() string {
	return fmt.Sprintf("%s (ch %d, cc %d) = %d", s.Label, s.Channel, s.Controller, int(s.Value))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
