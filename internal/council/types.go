// Package council implements the deliberation engine: a request-scoped
// pipeline that fans a task out to a roster of LLM roles, has them
// critique each other pairwise, aggregates the critiques with three
// independent ranking methods, and asks a chairman model for a synthesis.
package council

import (
	"time"

	"github.com/superagent/llmcouncil/internal/models"
)

// Role is one seat at the council: a display name bound to exactly one
// model and its sampling parameters. Role names must be unique within a
// single deliberation.
type Role struct {
	Name         string
	SystemPrompt string
	ModelID      string
	Sampling     models.ModelParameters
	// Weight is informational only — it is threaded through and echoed in
	// CouncilOutput.Metadata but never multiplies a verdict margin in any
	// of the three aggregators. Honoring it would require an explicit,
	// documented formula this engine does not implement.
	Weight float64
}

// Task is the user's free-form question posed to the council.
type Task struct {
	Text string
}

// Answer is one role's response to the task, produced exactly once per
// role during the generation stage.
type Answer struct {
	RoleName   string    `json:"role_name"`
	ModelID    string    `json:"model_id"`
	Text       string    `json:"text"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	TokensUsed int       `json:"tokens_used"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Outcome is one of the five verdict tokens a judge may report, closed
// over the set the protocol defines — see §4.4.
type Outcome int

const (
	// OutcomeUnparseable is the zero value: the parser found no
	// recognizable verdict token in the judge's reply.
	OutcomeUnparseable Outcome = iota
	OutcomeAStrongWinB // [[A≫B]]  margin +2
	OutcomeAWinB       // [[A>B]]  margin +1
	OutcomeTie         // [[A=B]]  margin  0
	OutcomeBWinA       // [[B>A]]  margin -1
	OutcomeBStrongWinA // [[B≫A]]  margin -2
)

// Margin returns the outcome's signed margin in {-2,-1,0,+1,+2}, positive
// favoring the first (A) candidate. OutcomeUnparseable has no margin and
// is never aggregated.
func (o Outcome) Margin() int {
	switch o {
	case OutcomeAStrongWinB:
		return 2
	case OutcomeAWinB:
		return 1
	case OutcomeTie:
		return 0
	case OutcomeBWinA:
		return -1
	case OutcomeBStrongWinA:
		return -2
	default:
		return 0
	}
}

// Verdict is one judge's parsed opinion on one unordered pair of
// candidate answers. CandidateA/CandidateB are role names, kept in the
// index order the pair was enumerated in (CandidateA has the lower
// generation index), so Margin's sign is meaningful without re-deriving
// which side is "A".
type Verdict struct {
	JudgeRole   string
	CandidateA  string
	CandidateB  string
	Outcome     Outcome
	Margin      int
	RawText     string
	Parseable   bool
}

// AggregationScores is one method's output: a score per candidate role
// name, and optionally a 95% confidence interval per role.
type AggregationScores struct {
	Scores              map[string]float64        `json:"scores"`
	ConfidenceIntervals map[string][2]float64      `json:"confidence_intervals,omitempty"`
	Notes               map[string]string          `json:"notes,omitempty"`
}

// Options controls optional behavior of a deliberation. Zero-value
// Options is never valid input — callers should start from DefaultOptions.
type Options struct {
	OutputMode    OutputMode
	Anonymize     bool
	Review        bool
	Reviewers     []string
	Aggregation   AggregationMethod
	ChairmanModel string
}

// OutputMode selects which of the two final artifacts a deliberation
// produces.
type OutputMode string

const (
	OutputModePerspectives OutputMode = "perspectives"
	OutputModeSynthesis    OutputMode = "synthesis"
	OutputModeBoth         OutputMode = "both"
)

// AggregationMethod names one of the three aggregators; used to select
// which score map is echoed as the "primary" one in metadata. All three
// are always computed regardless of this selection.
type AggregationMethod string

const (
	AggregationBorda        AggregationMethod = "borda"
	AggregationBradleyTerry AggregationMethod = "bradley_terry"
	AggregationELO          AggregationMethod = "elo"
)

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{
		OutputMode:  OutputModeBoth,
		Anonymize:   true,
		Review:      true,
		Aggregation: AggregationBorda,
	}
}

// CouncilOutput is the full result of one deliberation.
type CouncilOutput struct {
	Task              Task                          `json:"task"`
	Results           []Answer                      `json:"results"`
	AggregationScores map[string]AggregationScores  `json:"aggregation_scores"`
	Synthesis         *string                       `json:"synthesis,omitempty"`
	Metadata          map[string]interface{}        `json:"metadata"`
}
