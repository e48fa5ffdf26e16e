package aggregation

// Borda implements the weighted-pairwise-points aggregator (§4.5.1).
type Borda struct{}

// bordaWeight converts a signed margin into the points awarded to the
// candidate-A and candidate-B side of the pair.
func bordaWeight(margin int) (forA, forB float64) {
	switch margin {
	case 2:
		return 3, 0
	case 1:
		return 1, 0
	case 0:
		return 0.5, 0.5
	case -1:
		return 0, 1
	case -2:
		return 0, 3
	default:
		return 0, 0
	}
}

// Score sums each candidate's points across every verdict it appears in.
// No normalization. The result is an unordered map of raw sums; no
// tie-break is applied here or downstream, so the relative order of
// candidates with equal sums is not defined.
func (Borda) Score(verdicts []Verdict, candidates []string) Scores {
	scores := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		scores[c] = 0
	}

	for _, v := range verdicts {
		forA, forB := bordaWeight(v.Margin)
		scores[v.CandidateA] += forA
		scores[v.CandidateB] += forB
	}

	return Scores{Scores: scores}
}
