package aggregation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func allPairsTie(candidates []string) []Verdict {
	var verdicts []Verdict
	for i := 0; i < len(candidates); i++ {
		for l := i + 1; l < len(candidates); l++ {
			verdicts = append(verdicts, Verdict{CandidateA: candidates[i], CandidateB: candidates[l], Margin: 0})
		}
	}
	return verdicts
}

func TestBorda_S1_SingleStrongWin(t *testing.T) {
	verdicts := []Verdict{{CandidateA: "R1", CandidateB: "R2", Margin: 2}}
	scores := Borda{}.Score(verdicts, []string{"R1", "R2"})
	assert.Equal(t, 3.0, scores.Scores["R1"])
	assert.Equal(t, 0.0, scores.Scores["R2"])
}

func TestBorda_S2_AllTies(t *testing.T) {
	candidates := []string{"R1", "R2", "R3"}
	scores := Borda{}.Score(allPairsTie(candidates), candidates)
	// Each candidate sits in exactly 2 of the 3 pairs, each worth 0.5 on a
	// tie: 2 * 0.5 = 1.0.
	for _, c := range candidates {
		assert.Equal(t, 1.0, scores.Scores[c])
	}
}

func TestBorda_KeySetMatchesCandidates(t *testing.T) {
	candidates := []string{"A", "B", "C"}
	scores := Borda{}.Score(nil, candidates)
	assert.Len(t, scores.Scores, 3)
	for _, c := range candidates {
		_, ok := scores.Scores[c]
		assert.True(t, ok)
	}
}

func TestBorda_Determinism(t *testing.T) {
	verdicts := []Verdict{
		{CandidateA: "R1", CandidateB: "R2", Margin: 1},
		{CandidateA: "R2", CandidateB: "R3", Margin: -2},
	}
	candidates := []string{"R1", "R2", "R3"}
	first := Borda{}.Score(verdicts, candidates)
	second := Borda{}.Score(verdicts, candidates)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestBorda_SymmetryUnderRelabeling(t *testing.T) {
	verdicts := []Verdict{{CandidateA: "R1", CandidateB: "R2", Margin: 1}}
	original := Borda{}.Score(verdicts, []string{"R1", "R2"})

	renamed := []Verdict{{CandidateA: "X1", CandidateB: "X2", Margin: 1}}
	relabel := Borda{}.Score(renamed, []string{"X1", "X2"})

	assert.Equal(t, original.Scores["R1"], relabel.Scores["X1"])
	assert.Equal(t, original.Scores["R2"], relabel.Scores["X2"])
}

func TestBradleyTerry_AllTies(t *testing.T) {
	candidates := []string{"R1", "R2", "R3"}
	scores := BradleyTerry{}.Score(allPairsTie(candidates), candidates)
	first := scores.Scores["R1"]
	for _, c := range candidates {
		assert.InDelta(t, first, scores.Scores[c], 1e-5)
	}
}

func TestBradleyTerry_DominanceProperty(t *testing.T) {
	// R1 strong-beats R2 and R3 in every verdict involving it.
	verdicts := []Verdict{
		{CandidateA: "R1", CandidateB: "R2", Margin: 2},
		{CandidateA: "R1", CandidateB: "R3", Margin: 2},
		{CandidateA: "R2", CandidateB: "R3", Margin: 0},
	}
	candidates := []string{"R1", "R2", "R3"}
	scores := BradleyTerry{}.Score(verdicts, candidates)

	for _, other := range []string{"R2", "R3"} {
		assert.Greater(t, scores.Scores["R1"], scores.Scores[other])
	}
}

func TestBradleyTerry_DeterminismWithinTolerance(t *testing.T) {
	verdicts := []Verdict{
		{CandidateA: "R1", CandidateB: "R2", Margin: 1},
		{CandidateA: "R2", CandidateB: "R3", Margin: -1},
	}
	candidates := []string{"R1", "R2", "R3"}
	first := BradleyTerry{}.Score(verdicts, candidates)
	second := BradleyTerry{}.Score(verdicts, candidates)
	for _, c := range candidates {
		assert.InDelta(t, first.Scores[c], second.Scores[c], 1e-6)
	}
}

func TestBradleyTerry_UncontestedCandidateFlagged(t *testing.T) {
	verdicts := []Verdict{{CandidateA: "R1", CandidateB: "R2", Margin: 1}}
	candidates := []string{"R1", "R2", "R3"} // R3 never appears
	scores := BradleyTerry{}.Score(verdicts, candidates)
	assert.Contains(t, scores.Notes, "R3")
}

func TestElo_S2_AllTiesExactly1000(t *testing.T) {
	candidates := []string{"R1", "R2", "R3"}
	elo := NewEloWithRand(rand.New(rand.NewSource(1)))
	scores := elo.Score(allPairsTie(candidates), candidates)
	for _, c := range candidates {
		assert.Equal(t, 1000.0, scores.Scores[c])
	}
}

func TestElo_S1_WinnerAboveAndLoserBelowInitial(t *testing.T) {
	verdicts := []Verdict{{CandidateA: "R1", CandidateB: "R2", Margin: 2}}
	elo := NewEloWithRand(rand.New(rand.NewSource(1)))
	scores := elo.Score(verdicts, []string{"R1", "R2"})
	assert.Greater(t, scores.Scores["R1"], 1000.0)
	assert.Less(t, scores.Scores["R2"], 1000.0)
}

func TestElo_BootstrapCIWellFormed(t *testing.T) {
	verdicts := []Verdict{
		{CandidateA: "R1", CandidateB: "R2", Margin: 2},
		{CandidateA: "R2", CandidateB: "R3", Margin: 1},
		{CandidateA: "R1", CandidateB: "R3", Margin: 1},
	}
	candidates := []string{"R1", "R2", "R3"}
	elo := NewEloWithRand(rand.New(rand.NewSource(7)))
	scores := elo.Score(verdicts, candidates)

	for _, c := range candidates {
		ci := scores.ConfidenceIntervals[c]
		point := scores.Scores[c]
		assert.LessOrEqual(t, ci[0], point+1e-6)
		assert.GreaterOrEqual(t, ci[1], point-1e-6)
	}
}

func TestElo_PointEstimateDeterministicForFixedOrder(t *testing.T) {
	verdicts := []Verdict{
		{CandidateA: "R1", CandidateB: "R2", Margin: 1},
		{CandidateA: "R2", CandidateB: "R3", Margin: -1},
	}
	candidates := []string{"R1", "R2", "R3"}

	first := runElo(verdicts, candidates)
	second := runElo(verdicts, candidates)
	assert.Equal(t, first, second)
}
