package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/superagent/llmcouncil/internal/anonymize"
	"github.com/superagent/llmcouncil/internal/llm"
	"github.com/superagent/llmcouncil/internal/models"
)

// runSynthesis issues the single chairman call (§4.6). If it fails,
// the caller treats synthesis as absent — the rest of the output still
// stands.
func runSynthesis(ctx context.Context, logger *logrus.Logger, registry *llm.Registry, task Task, successful []Answer, scores map[string]AggregationScores, chairmanModel string, anonymizeOn bool, sessionID string) (string, error) {
	provider, err := registry.Get(chairmanModel)
	if err != nil {
		return "", fmt.Errorf("no provider for chairman model %q: %w", chairmanModel, err)
	}

	var labels map[string]string
	if anonymizeOn {
		names := make([]string, len(successful))
		for i, a := range successful {
			names[i] = a.RoleName
		}
		labels = anonymize.Labels(names)
	}

	prompt := buildChairmanSynthesisPrompt(task.Text, successful, scores, labels)

	req := &models.LLMRequest{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Messages: []models.Message{
			{Role: "system", Content: "You are the Chairman of an LLM Council, synthesizing its members' answers and peer rankings into one final answer."},
			{Role: "user", Content: prompt},
		},
		ModelParams: models.ModelParameters{Model: chairmanModel},
		CreatedAt:   time.Now(),
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		logger.WithError(err).Warn("council: synthesis call failed")
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("chairman returned empty synthesis")
	}
	return resp.Content, nil
}

// buildChairmanSynthesisPrompt renders the task, every successful
// answer (optionally anonymized), and a compact digest of the three
// ranking tables.
func buildChairmanSynthesisPrompt(task string, successful []Answer, scores map[string]AggregationScores, labels map[string]string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Original question: %s\n\n", task))
	sb.WriteString("Individual responses:\n\n")
	for _, a := range successful {
		id := a.RoleName
		if labels != nil {
			id = labels[a.RoleName]
		}
		sb.WriteString(fmt.Sprintf("--- %s ---\n%s\n\n", id, a.Text))
	}

	if len(scores) > 0 {
		sb.WriteString("Peer-review rankings:\n")
		methods := make([]string, 0, len(scores))
		for m := range scores {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", m, digestScores(scores[m], labels)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Synthesize all of this into a single, comprehensive, accurate final answer. ")
	sb.WriteString("Consider the individual responses, the rankings, and any patterns of agreement or disagreement.")
	return sb.String()
}

func digestScores(s AggregationScores, labels map[string]string) string {
	type ranked struct {
		id    string
		score float64
	}
	entries := make([]ranked, 0, len(s.Scores))
	for role, score := range s.Scores {
		id := role
		if labels != nil {
			id = labels[role]
		}
		entries = append(entries, ranked{id, score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s=%.2f", e.id, e.score))
	}
	return strings.Join(parts, ", ")
}
