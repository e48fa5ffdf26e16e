package council

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/superagent/llmcouncil/internal/council/aggregation"
	"github.com/superagent/llmcouncil/internal/llm"
)

// DefaultRequestTimeout is the default per-request deadline for provider
// calls (§5). The coordinator does not apply it itself; the OpenRouter
// adapter's HTTP client enforces the same limit on every request.
const DefaultRequestTimeout = 120 * time.Second

// DefaultDeliberationTimeout is the coordinator's overall deadline for
// one deliberation (§5).
const DefaultDeliberationTimeout = 10 * time.Minute

// Coordinator is the engine's single entrypoint: it sequences the
// generation, peer-review, aggregation, and synthesis stages and
// assembles the CouncilOutput, exactly mirroring the role a
// logger-injected service constructor plays in the rest of this stack.
type Coordinator struct {
	logger      *logrus.Logger
	registry    *llm.Registry
	maxInFlight int
}

// NewCoordinator builds a Coordinator. A nil logger gets a default
// logrus.Logger, matching the convention used throughout this module.
func NewCoordinator(logger *logrus.Logger, registry *llm.Registry) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{logger: logger, registry: registry, maxInFlight: DefaultMaxInFlight}
}

// WithMaxInFlight overrides the peer-review stage's concurrency cap.
func (c *Coordinator) WithMaxInFlight(n int) *Coordinator {
	c.maxInFlight = n
	return c
}

// Deliberate runs one full deliberation: fan out generation, optionally
// run peer review and all three aggregators, optionally run synthesis,
// and assemble the result. It fails wholesale only on an invalid request,
// or with Cancelled when the context is done and fewer than two answers
// succeeded; per-stage provider failures degrade to empty fields rather
// than aborting (§4.1, §7).
func (c *Coordinator) Deliberate(ctx context.Context, task Task, roles []Role, chairmanModel string, opts Options) (*CouncilOutput, error) {
	if err := validateRequest(roles, chairmanModel, opts); err != nil {
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDeliberationTimeout)
		defer cancel()
	}

	sessionID := uuid.New().String()
	start := time.Now()

	roleByName := make(map[string]Role, len(roles))
	for _, r := range roles {
		roleByName[r.Name] = r
	}

	c.logger.WithFields(logrus.Fields{"session_id": sessionID, "roles": len(roles)}).Info("council: generation started")
	answers := runGeneration(ctx, c.logger, c.registry, task, roles, sessionID)

	var successful []Answer
	for _, a := range answers {
		if a.Success {
			successful = append(successful, a)
		}
	}

	if len(successful) < 2 && ctx.Err() != nil {
		return nil, NewCancelled(ctx.Err())
	}

	metadata := map[string]interface{}{
		"session_id":         sessionID,
		"generation_success": len(successful),
		"generation_failed":  len(answers) - len(successful),
	}

	scores := map[string]AggregationScores{}
	var peerReviewTexts map[string]string

	if len(successful) >= 2 && opts.Review {
		judgeNames := opts.Reviewers
		if len(judgeNames) == 0 {
			for _, a := range successful {
				judgeNames = append(judgeNames, a.RoleName)
			}
		}

		c.logger.WithField("judges", len(judgeNames)).Info("council: peer review started")
		verdicts, stats := runPeerReview(ctx, c.logger, c.registry, task, roleByName, successful, judgeNames, opts.Anonymize, c.maxInFlight, sessionID)

		metadata["peer_review_calls"] = stats.TotalCalls
		metadata["peer_review_failed"] = stats.Failed
		metadata["unparseable"] = stats.Unparseable
		peerReviewTexts = stats.Texts

		candidates := make([]string, len(successful))
		for i, a := range successful {
			candidates[i] = a.RoleName
		}

		if len(verdicts) >= 1 {
			aggVerdicts := toAggregationVerdicts(verdicts)
			scores[string(AggregationBorda)] = fromAggregationScores(aggregation.Borda{}.Score(aggVerdicts, candidates))
			scores[string(AggregationBradleyTerry)] = fromAggregationScores(aggregation.BradleyTerry{}.Score(aggVerdicts, candidates))
			scores[string(AggregationELO)] = fromAggregationScores(aggregation.NewElo().Score(aggVerdicts, candidates))
		}
	}

	if peerReviewTexts != nil {
		metadata["peer_review_texts"] = peerReviewTexts
	}
	if opts.Aggregation != "" {
		metadata["primary_aggregation"] = string(opts.Aggregation)
	}
	metadata["roles"] = roleWeightDigest(roles)

	var synthesisText *string
	if opts.OutputMode == OutputModeSynthesis || opts.OutputMode == OutputModeBoth {
		text, err := runSynthesis(ctx, c.logger, c.registry, task, successful, scores, chairmanModel, opts.Anonymize, sessionID)
		if err == nil {
			synthesisText = &text
		} else {
			c.logger.WithError(err).Warn("council: synthesis absent")
		}
	}

	metadata["elapsed_ms"] = time.Since(start).Milliseconds()

	return &CouncilOutput{
		Task:              task,
		Results:           answers,
		AggregationScores: scores,
		Synthesis:         synthesisText,
		Metadata:          metadata,
	}, nil
}

// validateRequest enforces §4.1 step 1's InvalidRequest contract,
// including the REDESIGN that a missing chairman model is rejected up
// front rather than silently defaulting to an arbitrary model when
// synthesis is requested.
func validateRequest(roles []Role, chairmanModel string, opts Options) error {
	if len(roles) < 2 {
		return NewInvalidRequest("at least two roles are required")
	}
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		if r.ModelID == "" {
			return NewInvalidRequest(fmt.Sprintf("role %q has an empty model id", r.Name))
		}
		if seen[r.Name] {
			return NewInvalidRequest(fmt.Sprintf("duplicate role name %q", r.Name))
		}
		seen[r.Name] = true
	}
	wantsSynthesis := opts.OutputMode == OutputModeSynthesis || opts.OutputMode == OutputModeBoth
	if wantsSynthesis && chairmanModel == "" {
		return NewInvalidRequest("chairman model id is required when synthesis is requested")
	}
	return nil
}

func toAggregationVerdicts(verdicts []Verdict) []aggregation.Verdict {
	out := make([]aggregation.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, aggregation.Verdict{CandidateA: v.CandidateA, CandidateB: v.CandidateB, Margin: v.Margin})
	}
	return out
}

func fromAggregationScores(s aggregation.Scores) AggregationScores {
	return AggregationScores{
		Scores:              s.Scores,
		ConfidenceIntervals: s.ConfidenceIntervals,
		Notes:               s.Notes,
	}
}

func roleWeightDigest(roles []Role) map[string]float64 {
	digest := make(map[string]float64, len(roles))
	for _, r := range roles {
		weight := r.Weight
		if weight == 0 {
			weight = 1
		}
		digest[r.Name] = weight
	}
	return digest
}
