// Package interventions generates the prototype therapy-plan options for a
// child and picks the recommended one.
package interventions

import (
	"math"
	"strconv"
	"strings"
)

// Severity of the child's presentation.
type Severity string

const (
	Mild     Severity = "mild"
	Moderate Severity = "moderate"
	Severe   Severity = "severe"
)

// ParseSeverity lower-cases s; anything unrecognised, including padded
// values, is Moderate.
func ParseSeverity(s string) Severity {
	switch sev := Severity(strings.ToLower(s)); sev {
	case Mild, Moderate, Severe:
		return sev
	}
	return Moderate
}

// Features are the inputs to plan generation. RiskScore is a fraction.
type Features struct {
	AgeYears   *float64 `json:"age_years,omitempty"`
	Severity   string   `json:"severity,omitempty"`
	RiskScore  *float64 `json:"risk_score,omitempty"`
	CommScore  *float64 `json:"comm_score,omitempty"`
	MotorScore *float64 `json:"motor_score,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

const defaultRisk = 0.5

func (f Features) risk() float64 {
	if f.RiskScore == nil {
		return defaultRisk
	}
	return *f.RiskScore
}

// bonusSeverity is the severity used for the recommendation fit bonus. An
// unrecognised value borrows the moderate tables but matches no bonus.
func (f Features) bonusSeverity() Severity {
	if f.Severity == "" {
		return Moderate
	}
	return Severity(strings.ToLower(f.Severity))
}

// Plan is one therapy option.
type Plan struct {
	Key                  string  `json:"key"`
	Name                 string  `json:"name"`
	Tag                  *string `json:"tag"`
	Subtitle             string  `json:"subtitle"`
	Frequency            string  `json:"frequency"`
	MilestoneProbability int     `json:"milestone_probability"`
	TimeEstimate         string  `json:"time_estimate"`
	CostEstimate         float64 `json:"cost_estimate"`
	Description          string  `json:"desc"`
	Recommended          bool    `json:"recommended"`
}

type tier struct {
	frequency [3]string
	milestone [3]float64
	cost      [3]float64
}

var tiers = map[Severity]tier{
	Severe:   {[3]string{"5x/week", "3x/week", "2x/week"}, [3]float64{0.85, 0.72, 0.60}, [3]float64{15000, 9500, 6000}},
	Moderate: {[3]string{"4x/week", "3x/week", "2x/week"}, [3]float64{0.82, 0.71, 0.58}, [3]float64{13000, 8800, 5800}},
	Mild:     {[3]string{"3x/week", "2x/week", "1x/week"}, [3]float64{0.80, 0.70, 0.62}, [3]float64{11000, 7800, 5200}},
}

var timeEstimates = [3]string{"6-9 months", "9-12 months", "12-18 months"}

// Risk adjustment per plan: slope, floor, ceiling.
var adjustments = [3]struct{ slope, lo, hi float64 }{
	{0.2, 0.45, 0.95},
	{0.15, 0.40, 0.90},
	{0.1, 0.35, 0.85},
}

var recommendedTag = "Recommended"

var templates = [3]Plan{
	{Key: "A", Name: "Intensive", Tag: &recommendedTag, Subtitle: "Aggressive approach for rapid progress",
		Description: "Combines ABA, speech, and occupational therapy to maximize early developmental gains."},
	{Key: "B", Name: "Balanced", Subtitle: "Structured approach for steady improvement",
		Description: "Balanced mix of ABA and speech therapy with manageable weekly commitments."},
	{Key: "C", Name: "Social", Subtitle: "Focus on social skills and peer interaction",
		Description: "Emphasizes social skills training and group sessions for confidence and interaction."},
}

// Generate returns plans A, B and C for f with the recommended one marked.
func Generate(f Features) []Plan {
	risk := f.risk()
	t := tiers[ParseSeverity(f.Severity)]

	plans := make([]Plan, len(templates))
	for i, tpl := range templates {
		adj := adjustments[i]
		m := clamp(t.milestone[i]+(risk-0.5)*adj.slope, adj.lo, adj.hi)

		p := tpl
		p.Frequency = t.frequency[i]
		p.MilestoneProbability = int(math.RoundToEven(m * 100))
		p.TimeEstimate = timeEstimates[i]
		p.CostEstimate = t.cost[i]
		plans[i] = p
	}

	if k := Recommend(plans, f.bonusSeverity(), risk); k >= 0 {
		plans[k].Recommended = true
	}
	return plans
}

// Recommend scores plans on milestone probability (0.45), cost (0.30) and
// time to milestone (0.20), plus a fit bonus for severity and risk, and
// returns the index of the best one. The first plan wins ties; -1 means no plans.
func Recommend(plans []Plan, sev Severity, risk float64) int {
	if len(plans) == 0 {
		return -1
	}

	milestones := make([]float64, len(plans))
	costs := make([]float64, len(plans))
	times := make([]float64, len(plans))
	for i, p := range plans {
		milestones[i] = float64(p.MilestoneProbability)
		costs[i] = p.CostEstimate
		times[i] = ParseTimeMonths(p.TimeEstimate)
	}
	minM, maxM := bounds(milestones)
	minC, maxC := bounds(costs)
	minT, maxT := bounds(times)

	best, bestScore := -1, math.Inf(-1)
	for i, p := range plans {
		total := 0.45*norm(milestones[i], minM, maxM, false) +
			0.30*norm(costs[i], minC, maxC, true) +
			0.20*norm(times[i], minT, maxT, true) +
			fitBonus(p.Key, sev, risk)
		if total > bestScore {
			best, bestScore = i, total
		}
	}
	return best
}

func fitBonus(key string, sev Severity, risk float64) float64 {
	bonus := 0.0
	switch {
	case sev == Severe && key == "A", sev == Moderate && key == "B", sev == Mild && key == "C":
		bonus += 0.12
	}
	if risk >= 0.75 && key == "A" {
		bonus += 0.08
	}
	if risk <= 0.40 && key == "C" {
		bonus += 0.08
	}
	return bonus
}

// ParseTimeMonths converts "6-9 months" to its midpoint (7.5) and "12 months"
// to 12. Anything unparsable is 0.
func ParseTimeMonths(s string) float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "months", ""))
	if cleaned == "" {
		return 0
	}
	if lo, hi, ok := strings.Cut(cleaned, "-"); ok {
		a, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		b, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return (a + b) / 2
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func norm(v, lo, hi float64, invert bool) float64 {
	if hi == lo {
		return 1
	}
	s := (v - lo) / (hi - lo)
	if invert {
		return 1 - s
	}
	return s
}

func bounds(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
