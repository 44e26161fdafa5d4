package slider

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Preset is the configured form of a slider
type Preset struct {
	Label      string  `yaml:"label" json:"label"`
	Channel    int     `yaml:"channel" json:"channel"`
	Controller int     `yaml:"cc" json:"cc"`
	Value      float64 `yaml:"value" json:"value"`
}

// Bank is an insertion-ordered set of sliders. Safe for concurrent use.
type Bank struct {
	mu      sync.RWMutex
	sliders *orderedmap.OrderedMap[uuid.UUID, Slider]
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{sliders: orderedmap.New[uuid.UUID, Slider]()}
}

// LoadBank builds a bank from presets. No presets yields a bank with one default slider.
func LoadBank(presets []Preset) (*Bank, error) {
	b := NewBank()
	if len(presets) == 0 {
		b.Put(Default())
		return b, nil
	}

	for i, p := range presets {
		s := New(p.Label, p.Channel, p.Controller).WithValue(p.Value)
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		b.Put(s)
	}
	return b, nil
}

// Add appends a new slider on the next channel (capped at 16) with controller 1.
func (b *Bank) Add() Slider {
	b.mu.Lock()
	defer b.mu.Unlock()

	channel := b.sliders.Len() + 1
	if channel > MaxChannel {
		channel = MaxChannel
	}
	s := New(DefaultLabel, channel, MinController)
	b.sliders.Set(s.ID, s)
	return s
}

// Put inserts or replaces s. A new slider goes to the end.
func (b *Bank) Put(s Slider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sliders.Set(s.ID, s)
}

// Update replaces an existing slider, keeping its position. Reports false when s.ID is unknown.
func (b *Bank) Update(s Slider) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sliders.Get(s.ID); !ok {
		return false
	}
	b.sliders.Set(s.ID, s)
	return true
}

// Remove deletes the slider with id.
func (b *Bank) Remove(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sliders.Delete(id)
	return ok
}

func (b *Bank) Get(id uuid.UUID) (Slider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sliders.Get(id)
}

// At returns the slider at a zero-based position.
func (b *Bank) At(index int) (Slider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := 0
	for pair := b.sliders.Oldest(); pair != nil; pair = pair.Next() {
		if i == index {
			return pair.Value, true
		}
		i++
	}
	return Slider{}, false
}

func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sliders.Len()
}

// List returns the sliders in insertion order.
func (b *Bank) List() []Slider {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Slider, 0, b.sliders.Len())
	for pair := b.sliders.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
