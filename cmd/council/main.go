// Command council is the CLI harness that wires a provider, a role
// roster, and a task into one Deliberate call and prints the resulting
// CouncilOutput as JSON. It is not a re-implementation of the excluded
// HTTP surface — just the operator-facing entrypoint for exercising the
// engine directly.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/superagent/llmcouncil/internal/config"
	"github.com/superagent/llmcouncil/internal/council"
	"github.com/superagent/llmcouncil/internal/llm"
	"github.com/superagent/llmcouncil/internal/llm/providers/openrouter"
	"github.com/superagent/llmcouncil/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		rosterPath  string
		taskText    string
		anonymize   bool
		review      bool
		outputMode  string
		aggregation string
	)

	cmd := &cobra.Command{
		Use:   "council",
		Short: "Run one LLM council deliberation and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			roster, err := config.LoadRoster(rosterPath)
			if err != nil {
				return fmt.Errorf("loading roster: %w", err)
			}

			logger := logrus.New()
			logger.SetFormatter(&logrus.JSONFormatter{})

			registry := llm.NewDefaultRegistry()
			registry.Register("default", openrouter.NewWithBaseURL(cfg.OpenRouterAPIKey, cfg.OpenRouterURL))
			defer registry.Close()

			roles := make([]council.Role, 0, len(roster.Roles))
			for _, rs := range roster.Roles {
				temp := rs.Temperature
				if temp == 0 {
					temp = cfg.DefaultTemperature
				}
				maxTokens := rs.MaxTokens
				if maxTokens == 0 {
					maxTokens = cfg.DefaultMaxTokens
				}
				roles = append(roles, council.Role{
					Name:         rs.Name,
					SystemPrompt: rs.SystemPrompt,
					ModelID:      rs.Model,
					Weight:       rs.Weight,
					Sampling: models.ModelParameters{
						Temperature: temp,
						MaxTokens:   maxTokens,
					},
				})
			}

			opts := council.DefaultOptions()
			opts.Anonymize = anonymize
			opts.Review = review
			if outputMode != "" {
				opts.OutputMode = council.OutputMode(outputMode)
			}
			if aggregation != "" {
				opts.Aggregation = council.AggregationMethod(aggregation)
			}
			opts.ChairmanModel = roster.ChairmanModel

			coordinator := council.NewCoordinator(logger, registry).WithMaxInFlight(cfg.MaxInFlight)

			ctx, cancel := context.WithTimeout(context.Background(), cfg.DeliberationTimeout)
			defer cancel()

			output, err := coordinator.Deliberate(ctx, council.Task{Text: taskText}, roles, roster.ChairmanModel, opts)
			if err != nil {
				return fmt.Errorf("deliberation failed: %w", err)
			}

			encoded, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding output: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterPath, "roster", "", "path to a YAML role-roster file (required)")
	cmd.Flags().StringVar(&taskText, "task", "", "the task text to pose to the council (required)")
	cmd.Flags().BoolVar(&anonymize, "anonymize", true, "anonymize candidates during peer review and synthesis")
	cmd.Flags().BoolVar(&review, "review", true, "run peer review and aggregation")
	cmd.Flags().StringVar(&outputMode, "output-mode", "", "perspectives | synthesis | both (default both)")
	cmd.Flags().StringVar(&aggregation, "aggregation", "", "borda | bradley_terry | elo (primary method echoed in metadata)")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}
