package aggregation

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// EloK is the standard ELO update step size (§4.5.3).
const EloK = 32.0

// EloInitialRating is every candidate's rating before any match.
const EloInitialRating = 1000.0

// eloBootstrapRounds is the number of bootstrap resamples used to build
// the 95% confidence intervals.
const eloBootstrapRounds = 1000

// Elo implements the online-update aggregator with bootstrap confidence
// intervals (§4.5.3). Unlike Borda and BradleyTerry it is order-sensitive:
// the point estimate is computed over one deterministic pass across the
// canonical verdict list (insertion order from the peer-review stage),
// and the bootstrap resampling seed is drawn from the process clock — the
// point estimate is therefore reproducible for a fixed verdict list, but
// the exact CI bounds are not bit-for-bit reproducible across runs (only
// their width is stable). Implementations that need fully reproducible
// CIs should inject a seeded rand.Rand instead of NewElo's default.
type Elo struct {
	rng *rand.Rand
}

// NewElo returns an Elo aggregator whose bootstrap resampling is seeded
// from the process clock.
func NewElo() Elo {
	return Elo{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewEloWithRand returns an Elo aggregator using the given source of
// randomness, for tests that need bootstrap determinism.
func NewEloWithRand(r *rand.Rand) Elo {
	return Elo{rng: r}
}

// outcomeScore converts a signed margin into the [0,1] match outcome
// score for the A side of the pair, per §4.5.3's mapping.
func outcomeScore(margin int) float64 {
	return 0.5 + float64(margin)/4.0
}

// runElo performs one deterministic pass of the sequential ELO update
// over verdicts, starting every candidate at EloInitialRating.
func runElo(verdicts []Verdict, candidates []string) map[string]float64 {
	ratings := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		ratings[c] = EloInitialRating
	}

	for _, v := range verdicts {
		ra, rb := ratings[v.CandidateA], ratings[v.CandidateB]
		expectedA := 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
		outcomeA := outcomeScore(v.Margin)

		ratings[v.CandidateA] = ra + EloK*(outcomeA-expectedA)
		ratings[v.CandidateB] = rb + EloK*((1-outcomeA)-(1-expectedA))
	}

	return ratings
}

// Score computes the point ELO rating over the canonical verdict order,
// then 1000 bootstrap resamples (with replacement, same size) to report
// a 95% confidence interval per candidate.
func (e Elo) Score(verdicts []Verdict, candidates []string) Scores {
	point := runElo(verdicts, candidates)

	samples := make(map[string][]float64, len(candidates))
	for _, c := range candidates {
		samples[c] = make([]float64, 0, eloBootstrapRounds)
	}

	if len(verdicts) > 0 {
		rng := e.rng
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		for round := 0; round < eloBootstrapRounds; round++ {
			resample := make([]Verdict, len(verdicts))
			for i := range resample {
				resample[i] = verdicts[rng.Intn(len(verdicts))]
			}
			ratings := runElo(resample, candidates)
			for c, r := range ratings {
				samples[c] = append(samples[c], r)
			}
		}
	}

	cis := make(map[string][2]float64, len(candidates))
	for c, vals := range samples {
		if len(vals) == 0 {
			cis[c] = [2]float64{point[c], point[c]}
			continue
		}
		sort.Float64s(vals)
		cis[c] = [2]float64{percentile(vals, 2.5), percentile(vals, 97.5)}
	}

	return Scores{Scores: point, ConfidenceIntervals: cis}
}

// percentile returns the linear-interpolated p-th percentile of a sorted
// slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100.0) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
