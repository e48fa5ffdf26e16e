package council

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/superagent/llmcouncil/internal/llm"
	"github.com/superagent/llmcouncil/internal/models"
)

// roleResult is the generation stage's internal fan-out unit: a role's
// Answer tagged with its input index so results can be reassembled in
// role order regardless of completion order.
type roleResult struct {
	index  int
	answer Answer
}

// runGeneration launches one provider call per role in parallel and
// returns N answers in the same order as roles, one per role. An
// individual provider failure becomes a failed Answer; it never fails
// the stage as a whole.
func runGeneration(ctx context.Context, logger *logrus.Logger, registry *llm.Registry, task Task, roles []Role, sessionID string) []Answer {
	resultChan := make(chan roleResult, len(roles))

	var wg sync.WaitGroup
	for i, role := range roles {
		wg.Add(1)
		go func(idx int, r Role) {
			defer wg.Done()
			resultChan <- roleResult{index: idx, answer: generateOne(ctx, logger, registry, task, r, sessionID)}
		}(i, role)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	answers := make([]Answer, len(roles))
	for res := range resultChan {
		answers[res.index] = res.answer
	}
	return answers
}

// generateOne issues the single provider call for one role and converts
// the outcome into an Answer, never returning an error — failures are
// recorded on the Answer itself per §4.2.
func generateOne(ctx context.Context, logger *logrus.Logger, registry *llm.Registry, task Task, role Role, sessionID string) Answer {
	start := time.Now()

	provider, err := registry.Get(role.ModelID)
	if err != nil {
		logger.WithField("role", role.Name).WithError(err).Warn("council: no provider for role")
		return Answer{
			RoleName:  role.Name,
			ModelID:   role.ModelID,
			Success:   false,
			Error:     fmt.Sprintf("provider not found: %v", err),
			CreatedAt: time.Now(),
		}
	}

	sampling := role.Sampling
	sampling.Model = role.ModelID

	req := &models.LLMRequest{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Prompt:    role.SystemPrompt,
		Messages: []models.Message{
			{Role: "user", Content: task.Text},
		},
		ModelParams: sampling,
		CreatedAt:   time.Now(),
	}

	resp, err := provider.Complete(ctx, req)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		logger.WithField("role", role.Name).WithError(err).Warn("council: generation call failed")
		return Answer{
			RoleName:  role.Name,
			ModelID:   role.ModelID,
			Success:   false,
			Error:     err.Error(),
			LatencyMS: latency,
			CreatedAt: time.Now(),
		}
	}

	if resp.Content == "" {
		return Answer{
			RoleName:  role.Name,
			ModelID:   role.ModelID,
			Success:   false,
			Error:     "empty response",
			LatencyMS: latency,
			CreatedAt: time.Now(),
		}
	}

	return Answer{
		RoleName:   role.Name,
		ModelID:    role.ModelID,
		Text:       resp.Content,
		Success:    true,
		TokensUsed: resp.TokensUsed,
		LatencyMS:  latency,
		CreatedAt:  time.Now(),
	}
}
