package models

import "context"

// Purpose identifies which deployment a generation call targets.
type Purpose string

const (
	PurposeAnalyzeV1     Purpose = "analyze_v1"
	PurposeAnalyzeV2     Purpose = "analyze_v2"
	PurposeJudge         Purpose = "judge"
	PurposeTestGenerator Purpose = "test_generator"
)

// Prompt variable names understood by the deployments.
const (
	VarParagraphsLanguageOne = "paragraphs_language_one"
	VarParagraphsLanguageTwo = "paragraphs_language_two"
	VarDifference            = "difference"
	VarNumVariants           = "num_variants"
	VarExampleA              = "example_a"
	VarExampleB              = "example_b"
)

// GenerationRequest is a single call to a hosted prompt deployment. Prompt
// variable values are always strings.
type GenerationRequest struct {
	Purpose         Purpose
	DeploymentURL   string
	PromptVariables map[string]string
}

// Generator sends a prompt to a generation backend and returns the raw
// completion text. An empty string with a nil error means the backend
// returned no results.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerationRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}
