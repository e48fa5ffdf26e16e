// Package aggregation implements the three independent rank-inference
// methods the deliberation engine runs over one canonical verdict list:
// Borda, Bradley-Terry, and ELO with bootstrap confidence intervals.
//
// None of the three reads judge identity, only the (candidate-pair,
// margin) tuples, so all three are pure functions of the canonical
// verdict list and stable under verdict reordering (§4.5).
package aggregation

// Verdict is the aggregation-facing view of one parsed judgment: an
// unordered pair of candidate names and a signed margin in [-2,2]
// faviring CandidateA. Unparseable judgments never become a Verdict.
type Verdict struct {
	CandidateA string
	CandidateB string
	Margin     int
}

// Scores is one method's output.
type Scores struct {
	Scores              map[string]float64
	ConfidenceIntervals map[string][2]float64
	Notes               map[string]string
}

// Aggregator is the common capability every method implements: turn a
// canonical verdict list plus the candidate set into Scores. candidates
// is passed in generation order and fixes the key set of Scores; no
// method uses that order to break ties between equal scores.
type Aggregator interface {
	Score(verdicts []Verdict, candidates []string) Scores
}
