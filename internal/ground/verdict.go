package ground

import (
	"regexp"
	"strconv"
	"strings"
)

// Outcome is the parsed truth assessment of a claim.
type Outcome string

const (
	OutcomeTrue    Outcome = "true"
	OutcomeFalse   Outcome = "false"
	OutcomeUnknown Outcome = "unknown"
)

// Model output is markdown-ish: labels may carry ** bold markers and
// the value may be wrapped in brackets. The parsers tolerate both.
var (
	verdictLine    = regexp.MustCompile(`(?mi)^\s*\*{0,2}VERDICT:?\*{0,2}:?\s*\[?([^\]\n]+?)\]?\s*$`)
	confidenceLine = regexp.MustCompile(`(?mi)^\s*\*{0,2}CONFIDENCE:?\*{0,2}:?\s*\[?([^\]\n]+?)\]?\s*$`)
	explanationRe  = regexp.MustCompile(`(?mis)^\s*\*{0,2}EXPLANATION:?\*{0,2}:?\s*(.+?)(?:^\s*\*{0,2}SOURCES\b|\z)`)
)

// Verdict is the structured result read out of a raw model completion.
type Verdict struct {
	Outcome     Outcome
	RawLabel    string
	Confidence  float64
	HasConf     bool
	Explanation string
}

var truthyLabels = map[string]Outcome{
	"true":      OutcomeTrue,
	"factual":   OutcomeTrue,
	"credible":  OutcomeTrue,
	"accurate":  OutcomeTrue,
	"correct":   OutcomeTrue,
	"supported": OutcomeTrue,

	"false":         OutcomeFalse,
	"incorrect":     OutcomeFalse,
	"inaccurate":    OutcomeFalse,
	"misleading":    OutcomeFalse,
	"unsupported":   OutcomeFalse,
	"not supported": OutcomeFalse,
	"fabricated":    OutcomeFalse,
	"refuted":       OutcomeFalse,
}

// ParseVerdict extracts the verdict block from a raw completion. ok is
// false when no VERDICT line is present at all; an unrecognized label
// still counts as parsed, with OutcomeUnknown.
func ParseVerdict(raw string) (Verdict, bool) {
	m := verdictLine.FindStringSubmatch(raw)
	if m == nil {
		return Verdict{Outcome: OutcomeUnknown}, false
	}
	label := strings.ToLower(strings.TrimSpace(m[1]))
	label = strings.Trim(label, "*.")
	v := Verdict{Outcome: OutcomeUnknown, RawLabel: label}
	if out, found := truthyLabels[label]; found {
		v.Outcome = out
	}
	if cm := confidenceLine.FindStringSubmatch(raw); cm != nil {
		if conf, ok := parseConfidence(cm[1]); ok {
			v.Confidence = conf
			v.HasConf = true
		}
	}
	if em := explanationRe.FindStringSubmatch(raw); em != nil {
		v.Explanation = strings.TrimSpace(em[1])
	}
	return v, true
}

// parseConfidence accepts "0.8", "80%", or "high/medium/low" wording.
func parseConfidence(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*")))
	switch s {
	case "high":
		return 0.9, true
	case "medium", "moderate":
		return 0.6, true
	case "low":
		return 0.3, true
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if pct || f > 1 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}
