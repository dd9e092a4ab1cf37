package pacing

import (
	"fmt"
	"strings"
)

// Posture is the controller's aggressiveness level. Lower values are more
// conservative: longer delays between requests and fewer concurrent workers.
type Posture int

const (
	PostureConservative Posture = iota
	PostureBalanced
	PostureAggressive
)

// String returns the configuration name of the posture.
func (p Posture) String() string {
	switch p {
	case PostureConservative:
		return "conservative"
	case PostureBalanced:
		return "balanced"
	case PostureAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("posture(%d)", int(p))
	}
}

// ParsePosture maps a configuration name to a Posture.
func ParsePosture(name string) (Posture, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "conservative":
		return PostureConservative, nil
	case "balanced":
		return PostureBalanced, nil
	case "aggressive":
		return PostureAggressive, nil
	default:
		return PostureBalanced, fmt.Errorf("unknown pacing posture %q", name)
	}
}
