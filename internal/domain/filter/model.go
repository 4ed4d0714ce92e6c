package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrUnknownChoice = errors.New("unknown filter choice")
	ErrUnknownMode   = errors.New("unknown filter mode")
)

// Choice is a single pixel transform applied uniformly to every
// captured photo before composition.
type Choice string

const (
	None      Choice = "none"
	Grayscale Choice = "grayscale"
	Sepia     Choice = "sepia"
	Vivid     Choice = "vivid"
	Soft      Choice = "soft"
)

// Choices lists every selectable filter, None first.
func Choices() []Choice {
	return []Choice{None, Grayscale, Sepia, Vivid, Soft}
}

// ParseChoice converts a string into a Choice.
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Choices() {
		if c == known {
			return c, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownChoice, s)
}

// Mode selects how the filter stage runs.
type Mode string

const (
	ModeOff         Mode = "off"
	ModeAuto        Mode = "auto"
	ModeInteractive Mode = "interactive"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeOff, ModeAuto, ModeInteractive:
		return m, nil
	}
	return ModeOff, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Weighted pairs a choice with its weight for auto mode's random pick.
type Weighted struct {
	Choice Choice
	Weight int
}

// PickWeighted selects a choice proportionally to the weights. rnd must
// return a value in [0, n). Zero and negative weights are skipped; an
// empty or all-zero list yields None.
func PickWeighted(list []Weighted, rnd func(n int) int) Choice {
	total := 0
	for _, w := range list {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	if total == 0 {
		return None
	}
	pick := rnd(total)
	for _, w := range list {
		if w.Weight <= 0 {
			continue
		}
		if pick < w.Weight {
			return w.Choice
		}
		pick -= w.Weight
	}
	return None
}

// ParseWeightedList parses "grayscale:3,none:1" style configuration.
func ParseWeightedList(s string) ([]Weighted, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var list []Weighted
	for _, part := range strings.Split(s, ",") {
		name, weightStr, found := strings.Cut(part, ":")
		weight := 1
		if found {
			if _, err := fmt.Sscanf(strings.TrimSpace(weightStr), "%d", &weight); err != nil {
				return nil, fmt.Errorf("bad weight in %q: %w", part, err)
			}
		}
		choice, err := ParseChoice(name)
		if err != nil {
			return nil, err
		}
		list = append(list, Weighted{Choice: choice, Weight: weight})
	}
	return list, nil
}
