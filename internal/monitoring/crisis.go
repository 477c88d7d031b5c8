// Package monitoring scores a child's daily check-in for short-term crisis
// risk and suggests prevention steps for the day.
package monitoring

import (
	"fmt"
	"math"
	"slices"

	"neurothrive/internal/risk"
)

// Level is the crisis risk band of a check-in.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// LevelFor bands a fractional crisis score. Each bound is inclusive.
func LevelFor(score float64) Level {
	switch {
	case score <= 0.30:
		return LevelLow
	case score <= 0.60:
		return LevelMedium
	case score <= 0.85:
		return LevelHigh
	}
	return LevelCritical
}

// Checkin is the part of a daily check-in the scorer reads. Nil means the
// parent left the field blank.
type Checkin struct {
	SleepDisturbances     *int
	MoodMorning           string
	Appetite              string
	CommunicationAttempts *int
	SensoryAvoidanceCount *int
	Meltdowns             *int
	SelfHarmIncidents     int
}

// Assessment is the scored check-in. Score is a fraction in [0,1].
type Assessment struct {
	Score          float64             `json:"score"`
	Level          Level               `json:"level"`
	Classification risk.Classification `json:"classification"`
	Signals        []string            `json:"signals"`
	Prevention     []string            `json:"prevention_steps"`
}

// Escalates reports whether the assessment should open a predicted crisis event.
func (a Assessment) Escalates() bool { return a.Level != LevelLow }

var (
	irritableMoods = []string{"irritable", "very_irritable", "agitated"}
	poorAppetite   = []string{"poor", "refused"}
)

// Assess scores current against recent, the patient's previous check-ins
// newest first. Each triggered rule adds its weight and the total is capped at 1.
func Assess(current Checkin, recent []Checkin) Assessment {
	score := 0.0
	signals := []string{}

	if n := current.SleepDisturbances; n != nil && *n >= 2 {
		score += 0.20
		signals = append(signals, fmt.Sprintf("Sleep disrupted (%d wakings last night)", *n))
	}
	if slices.Contains(irritableMoods, current.MoodMorning) {
		score += 0.18
		signals = append(signals, "Morning mood: "+current.MoodMorning)
	}
	if slices.Contains(poorAppetite, current.Appetite) {
		score += 0.08
		signals = append(signals, "Appetite: "+current.Appetite)
	}
	if n := current.SensoryAvoidanceCount; n != nil && *n >= 3 {
		score += 0.15
		signals = append(signals, fmt.Sprintf("Sensory avoidance incidents: %d", *n))
	}
	if current.SelfHarmIncidents > 0 {
		score += 0.25
		signals = append(signals, fmt.Sprintf("Self-harm incidents reported: %d", current.SelfHarmIncidents))
	}

	if len(recent) > 0 {
		// Blank days count toward the divisor.
		total := 0
		for _, r := range recent {
			if r.CommunicationAttempts != nil {
				total += *r.CommunicationAttempts
			}
		}
		avg := float64(total) / float64(len(recent))
		if cur := current.CommunicationAttempts; cur != nil && avg > 0 && float64(*cur) < avg*0.70 {
			drop := int((1 - float64(*cur)/avg) * 100)
			score += 0.14
			signals = append(signals, fmt.Sprintf("Communication attempts dropped %d%% vs recent average", drop))
		}
		if m := recent[0].Meltdowns; m != nil && *m >= 2 {
			score += 0.10
			signals = append(signals, "Multiple meltdowns recorded yesterday")
		}
	}

	score = math.Min(math.Round(score*1000)/1000, 1.0)
	level := LevelFor(score)
	return Assessment{
		Score:          score,
		Level:          level,
		Classification: risk.Classify(score, risk.Fraction),
		Signals:        signals,
		Prevention:     PreventionSteps(level),
	}
}

var (
	baseSteps = []string{
		"Maintain a calm, predictable environment today",
		"Communicate in short, clear sentences",
		"Have child's preferred comfort item accessible",
	}
	elevatedSteps = []string{
		"Identify and prepare a quiet safe space now",
		"Pack noise-canceling headphones if leaving home",
		"Reduce non-essential demands and transitions today",
		"Inform school/daycare about elevated risk and request a lower-stimulation setting",
		"Offer preferred calming activity proactively (weighted blanket, puzzle, etc.)",
		"Have de-escalation protocol ready",
	}
	watchSteps = []string{
		"Monitor closely for escalating signs",
		"Offer a calming activity mid-morning",
	}
)

// PreventionSteps returns the day's guidance for level, most urgent first.
func PreventionSteps(level Level) []string {
	switch level {
	case LevelHigh, LevelCritical:
		return slices.Concat(elevatedSteps, baseSteps)
	case LevelMedium:
		return slices.Concat(watchSteps, baseSteps)
	}
	return slices.Clone(baseSteps)
}
