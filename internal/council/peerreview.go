package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/superagent/llmcouncil/internal/anonymize"
	"github.com/superagent/llmcouncil/internal/llm"
	"github.com/superagent/llmcouncil/internal/models"
)

// DefaultMaxInFlight is the recommended provider-adapter concurrency cap
// for the peer-review stage's k·k(k-1)/2 calls (§5).
const DefaultMaxInFlight = 32

// peerReviewJob is one (judge, pair) unit of work.
type peerReviewJob struct {
	judgeOrder int // position of the judge in the canonical judge ordering
	pairOrder  int // lexicographic position of (i,l) among pairs
	judge      Role
	candidateI Answer
	candidateL Answer
}

// peerReviewStats is the metadata the coordinator echoes for a run.
type peerReviewStats struct {
	TotalCalls   int
	Failed       int
	Unparseable  int
	Texts        map[string]string // "judge name|judge index|pair index" -> raw judge text
}

// runPeerReview issues one provider call per (judge, unordered pair of
// distinct candidates) and parses the result into a Verdict, per §4.3.
// The returned verdict list is in canonical order: (judge index, pair
// index in lexicographic (i,l) order) — this is what makes the ELO point
// estimate reproducible for a fixed verdict set (§5).
func runPeerReview(ctx context.Context, logger *logrus.Logger, registry *llm.Registry, task Task, roles map[string]Role, successful []Answer, judgeNames []string, anonymizeOn bool, maxInFlight int, sessionID string) ([]Verdict, peerReviewStats) {
	stats := peerReviewStats{Texts: make(map[string]string)}

	type pair struct{ i, l int }
	var pairs []pair
	for i := 0; i < len(successful); i++ {
		for l := i + 1; l < len(successful); l++ {
			pairs = append(pairs, pair{i, l})
		}
	}

	judges := make([]Role, 0, len(judgeNames))
	for _, name := range judgeNames {
		if r, ok := roles[name]; ok {
			judges = append(judges, r)
		}
	}

	var labels map[string]string
	if anonymizeOn {
		names := make([]string, len(successful))
		for i, a := range successful {
			names[i] = a.RoleName
		}
		labels = anonymize.Labels(names)
	}

	jobs := make([]peerReviewJob, 0, len(judges)*len(pairs))
	for jo, judge := range judges {
		for po, p := range pairs {
			jobs = append(jobs, peerReviewJob{
				judgeOrder: jo,
				pairOrder:  po,
				judge:      judge,
				candidateI: successful[p.i],
				candidateL: successful[p.l],
			})
		}
	}
	stats.TotalCalls = len(jobs)

	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	sem := semaphore.NewWeighted(int64(maxInFlight))

	type jobResult struct {
		job     peerReviewJob
		verdict Verdict
		raw     string
		failed  bool
	}
	results := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// context cancelled: record as a failed call for this pair
			// and stop launching new ones.
			results <- jobResult{job: job, failed: true}
			continue
		}
		wg.Add(1)
		go func(j peerReviewJob) {
			defer wg.Done()
			defer sem.Release(1)
			v, raw, failed := judgeOne(ctx, logger, registry, task, j, labels, anonymizeOn, sessionID)
			results <- jobResult{job: j, verdict: v, raw: raw, failed: failed}
		}(job)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	verdicts := make([]Verdict, 0, len(jobs))
	for r := range results {
		key := fmt.Sprintf("%s|%d|%d", r.job.judge.Name, r.job.judgeOrder, r.job.pairOrder)
		if r.raw != "" {
			stats.Texts[key] = r.raw
		}
		if r.failed {
			stats.Failed++
			continue
		}
		if !r.verdict.Parseable {
			stats.Unparseable++
			continue
		}
		verdicts = append(verdicts, r.verdict)
	}

	sort.Slice(verdicts, func(a, b int) bool {
		ja, jb := judgeIndex(judges, verdicts[a].JudgeRole), judgeIndex(judges, verdicts[b].JudgeRole)
		if ja != jb {
			return ja < jb
		}
		return pairIndex(successful, verdicts[a]) < pairIndex(successful, verdicts[b])
	})

	return verdicts, stats
}

func judgeIndex(judges []Role, name string) int {
	for i, j := range judges {
		if j.Name == name {
			return i
		}
	}
	return len(judges)
}

func pairIndex(successful []Answer, v Verdict) int {
	ia, ib := -1, -1
	for i, a := range successful {
		if a.RoleName == v.CandidateA {
			ia = i
		}
		if a.RoleName == v.CandidateB {
			ib = i
		}
	}
	// lexicographic rank of (ia,ib) among i<l pairs over len(successful) items
	n := len(successful)
	return ia*n - ia*(ia+1)/2 + (ib - ia - 1)
}

// judgeOne issues the single provider call asking judge to compare
// candidateI and candidateL, and parses the reply into a Verdict keyed
// by the candidates' real role names (anonymization only affects what
// text the judge is shown, never the internal bookkeeping — see S6).
func judgeOne(ctx context.Context, logger *logrus.Logger, registry *llm.Registry, task Task, job peerReviewJob, labels map[string]string, anonymizeOn bool, sessionID string) (Verdict, string, bool) {
	idA, idB := job.candidateI.RoleName, job.candidateL.RoleName
	if anonymizeOn {
		idA, idB = labels[idA], labels[idB]
	}

	prompt := buildPairwiseComparisonPrompt(task.Text, idA, job.candidateI.Text, idB, job.candidateL.Text)

	provider, err := registry.Get(job.judge.ModelID)
	if err != nil {
		logger.WithField("judge", job.judge.Name).WithError(err).Warn("council: no provider for judge")
		return Verdict{}, "", true
	}

	sampling := job.judge.Sampling
	sampling.Model = job.judge.ModelID

	req := &models.LLMRequest{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Prompt:    job.judge.SystemPrompt,
		Messages: []models.Message{
			{Role: "user", Content: prompt},
		},
		ModelParams: sampling,
		CreatedAt:   time.Now(),
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil || resp == nil {
		return Verdict{}, "", true
	}

	outcome, parseable := ParseVerdict(resp.Content)
	return Verdict{
		JudgeRole:  job.judge.Name,
		CandidateA: job.candidateI.RoleName,
		CandidateB: job.candidateL.RoleName,
		Outcome:    outcome,
		Margin:     outcome.Margin(),
		RawText:    resp.Content,
		Parseable:  parseable,
	}, resp.Content, false
}

// buildPairwiseComparisonPrompt renders the judge prompt: the task, the
// two labeled answers, and the exact five authoritative tokens. The
// tokens always spell the candidates "A" and "B" regardless of the
// anonymization labels shown in the body — the verdict vocabulary is a
// fixed closed set (§4.4), not derived from the candidates' display ids.
func buildPairwiseComparisonPrompt(task, idA, contentA, idB, contentB string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are evaluating responses to the task: %q\n\n", task))
	sb.WriteString("Below are two responses to compare. Call the first response A and the second response B.\n\n")
	sb.WriteString(fmt.Sprintf("--- Response A (%s) ---\n%s\n\n", idA, contentA))
	sb.WriteString(fmt.Sprintf("--- Response B (%s) ---\n%s\n\n", idB, contentB))
	sb.WriteString("Compare these responses on accuracy, clarity, completeness, and depth. ")
	sb.WriteString("First give a brief explanation, then conclude with your verdict using EXACTLY one of these tokens:\n")
	sb.WriteString("- [[A≫B]]: response A is significantly better\n")
	sb.WriteString("- [[A>B]]: response A is slightly better\n")
	sb.WriteString("- [[A=B]]: both responses are equally good\n")
	sb.WriteString("- [[B>A]]: response B is slightly better\n")
	sb.WriteString("- [[B≫A]]: response B is significantly better\n\n")
	sb.WriteString("Now provide your evaluation:")
	return sb.String()
}
