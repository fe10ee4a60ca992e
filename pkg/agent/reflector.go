package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/config"
)

const reflectorSystemPrompt = "You are a high-quality response analyzer. Your task is to evaluate and improve given responses."

// Reflector improves agent responses through a self-critique pass. After the
// main loop produces an answer, the reflector asks the model to evaluate it
// for accuracy, relevance, completeness, clarity, logic and format, and
// replaces the answer when the critique yields something better.
type Reflector struct {
	provider LLMProvider
	llm      config.LLMConfig
	logger   zerolog.Logger
}

// NewReflector creates a reflector backed by the given provider.
func NewReflector(provider LLMProvider, llm config.LLMConfig, logger zerolog.Logger) *Reflector {
	return &Reflector{
		provider: provider,
		llm:      llm,
		logger:   logger,
	}
}

// Reflect evaluates a response and returns the improved version together with
// a flag reporting whether it changed. Any failure falls back to the original
// response; reflection never breaks a run.
func (r *Reflector) Reflect(ctx context.Context, query, response string) (string, bool) {
	if strings.TrimSpace(response) == "" {
		return response, false
	}

	request := LLMRequest{
		Model: r.llm.Model,
		Messages: []Message{
			{Role: "system", Content: reflectorSystemPrompt},
			{Role: "user", Content: buildReflectionPrompt(query, response)},
		},
		Temperature:  r.llm.Temperature,
		MaxTokens:    r.llm.MaxTokens,
		SystemPrompt: reflectorSystemPrompt,
	}

	reflection, err := r.provider.Call(ctx, request)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Reflection call failed, keeping original response")
		return response, false
	}

	improved := extractImprovedResponse(reflection.Content)
	if improved == "" || improved == response {
		r.logger.Debug().Msg("Reflection produced no improvement")
		return response, false
	}

	r.logger.Info().Msg("Reflection produced an improved response")
	return improved, true
}

func buildReflectionPrompt(query, response string) string {
	return fmt.Sprintf(`Please evaluate the quality of the following response, which is an answer to a user query. After evaluation, provide an improved version if necessary:

User Query: %s

Current Response:
%s

Please evaluate the response based on the following aspects:
1. Accuracy: Is the information accurate?
2. Relevance: Does the response fully answer the user's query?
3. Completeness: Does it cover all important aspects?
4. Clarity: Is the expression clear and understandable?
5. Logicality: Are the arguments logical?
6. Format: Is the format appropriate and easy to read?

Please provide your improved response below. If no improvement is needed, just repeat the original response.`, query, response)
}

// extractImprovedResponse pulls the improved answer out of the critique. It
// looks for a marker line introducing the rewrite and collects everything
// after it; without a marker the whole critique is taken as the answer.
func extractImprovedResponse(reflection string) string {
	markers := []string{
		"improved response", "revised response", "better answer",
		"corrected response", "enhanced response",
	}

	lines := strings.Split(reflection, "\n")
	collected := []string{}
	capture := false

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if !capture {
			lower := strings.ToLower(line)
			for _, marker := range markers {
				if strings.Contains(lower, marker) {
					capture = true
					break
				}
			}
			continue
		}

		if line != "" {
			collected = append(collected, line)
		}
	}

	if len(collected) > 0 {
		return strings.Join(collected, "\n")
	}
	return strings.TrimSpace(reflection)
}
