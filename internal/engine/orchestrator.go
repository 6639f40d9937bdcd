package engine

// Outcome is the state the fallback decision resolves to.
type Outcome string

const (
	// LocalOnly keeps the pattern result as is.
	LocalOnly Outcome = "local_only"
	// AIEnhanced sends the pattern result to the AI collaborator.
	AIEnhanced Outcome = "ai_enhanced"
)

// Thresholds are the escalation thresholds per call site.
type Thresholds struct {
	NLPParse     float64
	Text         float64
	Receipt      float64
	BatchEnhance float64
}

// DefaultThresholds returns the standard per call site thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NLPParse:     0.7,
		Text:         0.8,
		Receipt:      0.8,
		BatchEnhance: 0.8,
	}
}

// Decision is the result of the fallback decision.
type Decision struct {
	Outcome Outcome
	// AIUnavailable is set when escalation was indicated but no AI
	// collaborator could take the request.
	AIUnavailable bool
}

// ShouldEscalate reports whether a local result with the given confidence
// should be handed to the AI collaborator.
func ShouldEscalate(local, threshold float64, aiAvailable, allowFallback bool) bool {
	return allowFallback && aiAvailable && local < threshold
}

// Decide resolves the fallback decision. It is a pure function of its inputs.
func Decide(local, threshold float64, aiAvailable, allowFallback bool) Decision {
	if ShouldEscalate(local, threshold, aiAvailable, allowFallback) {
		return Decision{Outcome: AIEnhanced}
	}
	return Decision{
		Outcome:       LocalOnly,
		AIUnavailable: allowFallback && !aiAvailable && local < threshold,
	}
}
