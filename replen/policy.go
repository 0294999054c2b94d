package replen

// Policy carries the tunable reorder parameters. The safety margin is a
// fraction of lead-time demand held as buffer stock; the business rule
// behind the default has not been confirmed, so it stays configurable.
type Policy struct {
	// SafetyMargin is the buffer fraction over lead-time demand, e.g. 0.2
	// holds 20% extra.
	SafetyMargin float64

	// Evaluation appends a quality-check stage after document generation.
	Evaluation bool
}

// DefaultSafetyMargin is the buffer fraction applied when no policy
// override is configured.
const DefaultSafetyMargin = 0.2

// DefaultPolicy returns the standard reorder policy.
func DefaultPolicy() Policy {
	return Policy{SafetyMargin: DefaultSafetyMargin}
}
