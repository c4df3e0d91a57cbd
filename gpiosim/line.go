package gpiosim

import (
	"fmt"
	"strconv"
)

// HogDirection is the direction a hogged line is forced to
type HogDirection int

const (
	HogDirectionInput HogDirection = iota + 1
	HogDirectionOutputHigh
	HogDirectionOutputLow
)

var hogDirectionNames = map[HogDirection]string{
	HogDirectionInput:      "input",
	HogDirectionOutputHigh: "output-high",
	HogDirectionOutputLow:  "output-low",
}

func (d HogDirection) String() string {
	if s, ok := hogDirectionNames[d]; ok {
		return s
	}
	return "HogDirection(" + strconv.Itoa(int(d)) + ")"
}

// ParseHogDirection returns the direction matching the configfs text
func ParseHogDirection(s string) (HogDirection, error) {
	for d, name := range hogDirectionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, newError(ErrorInvalidArgument, "parse hog direction", unknownValue(s))
}

// Pull is the simulated bias of a line
type Pull int

const (
	PullDown Pull = iota + 1
	PullUp
)

var pullNames = map[Pull]string{
	PullDown: "pull-down",
	PullUp:   "pull-up",
}

func (p Pull) String() string {
	if s, ok := pullNames[p]; ok {
		return s
	}
	return "Pull(" + strconv.Itoa(int(p)) + ")"
}

// ParsePull returns the pull matching the sysfs text
func ParsePull(s string) (Pull, error) {
	for p, name := range pullNames {
		if name == s {
			return p, nil
		}
	}
	return 0, newError(ErrorInvalidArgument, "parse pull", unknownValue(s))
}

func unknownValue(s string) error {
	return fmt.Errorf("unknown value %q", s)
}
