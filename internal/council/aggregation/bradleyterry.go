package aggregation

import "math"

// BradleyTerry implements the maximum-likelihood strength aggregator
// (§4.5.2), fit by Minorization-Maximization iteration rather than a
// closed form, matching the iterative-scaling fallback the Python
// original uses when no optimized solver is available.
type BradleyTerry struct{}

// btWeight converts a signed margin into the weighted win count the pair
// contributes to i (the A side) versus l (the B side). Note this table
// differs from Borda's: a ≫ win is worth 2, not 3.
func btWeight(margin int) (forA, forB float64) {
	switch margin {
	case 2:
		return 2, 0
	case 1:
		return 1, 0
	case 0:
		return 0.5, 0.5
	case -1:
		return 0, 1
	case -2:
		return 0, 2
	default:
		return 0, 0
	}
}

const (
	btMaxIterations   = 1000
	btTolerance       = 1e-6
)

// Score fits one strength per candidate by Minorization-Maximization:
//
//	sᵢ ← (Σ_ℓ Wᵢₗ) / (Σ_ℓ (Wᵢₗ + Wₗᵢ) / (sᵢ + sₗ))
//
// initialized at sᵢ=1, iterated to convergence or 1000 rounds, then
// renormalized so Σ log sᵢ = 0 (geometric mean 1) for stable reporting.
// A candidate with zero total contested weight gets the mean of the
// others' scores and is flagged in Notes, per §4.5.2's soft-failure rule.
func (BradleyTerry) Score(verdicts []Verdict, candidates []string) Scores {
	n := len(candidates)
	index := make(map[string]int, n)
	for i, c := range candidates {
		index[c] = i
	}

	w := make([][]float64, n) // w[i][l] = accumulated win weight of i over l
	for i := range w {
		w[i] = make([]float64, n)
	}
	for _, v := range verdicts {
		ia, ib := index[v.CandidateA], index[v.CandidateB]
		forA, forB := btWeight(v.Margin)
		w[ia][ib] += forA
		w[ib][ia] += forB
	}

	contested := make([]bool, n)
	for i := 0; i < n; i++ {
		for l := 0; l < n; l++ {
			if l != i && (w[i][l]+w[l][i]) > 0 {
				contested[i] = true
				break
			}
		}
	}

	s := make([]float64, n)
	for i := range s {
		s[i] = 1.0
	}

	for iter := 0; iter < btMaxIterations; iter++ {
		next := make([]float64, n)
		maxRelChange := 0.0

		for i := 0; i < n; i++ {
			if !contested[i] {
				next[i] = s[i]
				continue
			}
			numerator := 0.0
			denominator := 0.0
			for l := 0; l < n; l++ {
				if l == i {
					continue
				}
				numerator += w[i][l]
				total := w[i][l] + w[l][i]
				if total > 0 {
					denominator += total / (s[i] + s[l])
				}
			}
			if denominator == 0 {
				next[i] = s[i]
				continue
			}
			next[i] = numerator / denominator
			if next[i] <= 0 {
				next[i] = s[i]
			}
		}

		for i := 0; i < n; i++ {
			if s[i] != 0 {
				rel := math.Abs(next[i]-s[i]) / s[i]
				if rel > maxRelChange {
					maxRelChange = rel
				}
			}
		}
		s = next
		if maxRelChange < btTolerance {
			break
		}
	}

	notes := make(map[string]string)
	contestedMean := 0.0
	contestedCount := 0
	for i, ok := range contested {
		if ok {
			contestedMean += s[i]
			contestedCount++
		}
	}
	if contestedCount > 0 {
		contestedMean /= float64(contestedCount)
	} else {
		contestedMean = 1.0
	}
	for i := 0; i < n; i++ {
		if !contested[i] {
			s[i] = contestedMean
			notes[candidates[i]] = "no contested comparisons; scored at the mean of the other candidates"
		}
	}

	// Renormalize so the geometric mean is 1 (sum of logs is 0).
	sumLog := 0.0
	for _, v := range s {
		if v > 0 {
			sumLog += math.Log(v)
		}
	}
	shift := math.Exp(-sumLog / float64(n))
	scores := make(map[string]float64, n)
	for i, c := range candidates {
		scores[c] = s[i] * shift
	}

	result := Scores{Scores: scores}
	if len(notes) > 0 {
		result.Notes = notes
	}
	return result
}
