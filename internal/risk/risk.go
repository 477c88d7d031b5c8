// Package risk maps screening and check-in risk scores to display tiers.
//
// Scores are carried as fractions in [0,1] throughout the service. Values that
// arrive as percentages are converted at the edge with the Percent unit.
package risk

import (
	"fmt"
	"strings"
)

// Unit is the scale a score is expressed in.
type Unit int

const (
	Fraction Unit = iota // 0..1
	Percent              // 0..100
)

func (u Unit) String() string {
	switch u {
	case Fraction:
		return "fraction"
	case Percent:
		return "percent"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit accepts "fraction" (the default for an empty string) and "percent".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fraction":
		return Fraction, nil
	case "percent", "percentage":
		return Percent, nil
	}
	return Fraction, fmt.Errorf("unknown risk unit %q", s)
}

// Label is the human-readable risk level.
type Label string

const (
	Low      Label = "Low"
	Moderate Label = "Moderate"
	High     Label = "High"
)

// Tier is the visual severity used for badges.
type Tier string

const (
	Success Tier = "success"
	Warn    Tier = "warn"
	Danger  Tier = "danger"
)

// Lower bounds of the Moderate and High buckets, as fractions. Both are inclusive.
const (
	ModerateThreshold = 0.4
	HighThreshold     = 0.7
)

// Classification is the display tuple for a score.
type Classification struct {
	Label        Label  `json:"label"`
	SeverityTier Tier   `json:"severity_tier"`
	ColorToken   string `json:"color_token"`
}

// ToFraction converts score from unit into the canonical fraction scale.
func ToFraction(score float64, unit Unit) float64 {
	if unit == Percent {
		return score / 100
	}
	return score
}

// Classify maps score, expressed in unit, to its classification. There is no
// clamping: anything at or above the high bound is High and anything below the
// moderate bound, negatives included, is Low.
func Classify(score float64, unit Unit) Classification {
	s := ToFraction(score, unit)
	switch {
	case s >= HighThreshold:
		return Classification{Label: High, SeverityTier: Danger, ColorToken: "var(--danger)"}
	case s >= ModerateThreshold:
		return Classification{Label: Moderate, SeverityTier: Warn, ColorToken: "var(--warn)"}
	default:
		return Classification{Label: Low, SeverityTier: Success, ColorToken: "var(--success)"}
	}
}

// ClassifyFraction is Classify for scores already in the canonical unit.
func ClassifyFraction(score float64) Classification {
	return Classify(score, Fraction)
}
