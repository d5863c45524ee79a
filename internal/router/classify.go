package router

import (
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
)

// Classify derives the ephemeral operation metadata for one request.
// The switch is exhaustive over the closed request union; an unknown
// variant classifies as a simple text operation, which the default
// client can always serve.
func Classify(req domain.Request) domain.OperationMetadata {
	meta := domain.OperationMetadata{Kind: req.Kind()}

	switch r := req.(type) {
	case domain.TextRequest:
		meta.Complexity = sizeComplexity(len(r.Prompt))
		meta.EstimatedTokens = estimateTokens(len(r.Prompt))

	case domain.ComponentRequest:
		chars := len(r.Prompt) + r.Context.Chars()
		meta.Complexity = contextComplexity(r.Context.IsRich(), chars, len(r.Prompt))
		meta.RequiresFileAccess = r.Context.WorkingDir != ""
		meta.RequiresValidation = true
		meta.EstimatedTokens = estimateTokens(chars)

	case domain.RefineRequest:
		chars := len(r.Prompt) + len(r.Code) + r.Context.Chars()
		meta.Complexity = contextComplexity(r.Context.IsRich(), chars, len(r.Prompt))
		meta.RequiresFileAccess = r.Context.WorkingDir != ""
		meta.RequiresValidation = true
		meta.EstimatedTokens = estimateTokens(chars)

	case domain.WorkflowRequest:
		chars := len(r.Prompt) + r.Context.Chars()
		meta.Complexity = domain.ComplexityComplex
		meta.RequiresTools = true
		meta.RequiresStreaming = true
		meta.RequiresMultiStep = true
		meta.RequiresFileAccess = r.Context.WorkingDir != ""
		meta.EstimatedTokens = estimateTokens(chars)

	case domain.ToolRequest:
		chars := len(r.Prompt) + r.Context.Chars()
		meta.Complexity = domain.ComplexityComplex
		meta.RequiresTools = true
		meta.RequiresStreaming = true
		meta.RequiresMultiStep = true
		meta.RequiresFileAccess = r.Context.WorkingDir != ""
		meta.EstimatedTokens = estimateTokens(chars)

	default:
		meta.Complexity = domain.ComplexitySimple
	}

	return meta
}

// contextComplexity grades component and refinement requests. Rich
// context and a large payload together mean complex; exactly one of the
// two means moderate; neither falls through to the size default.
func contextComplexity(rich bool, totalChars, promptChars int) domain.Complexity {
	large := totalChars > constants.RichContextThreshold
	switch {
	case rich && large:
		return domain.ComplexityComplex
	case rich || large:
		return domain.ComplexityModerate
	default:
		return sizeComplexity(promptChars)
	}
}

// sizeComplexity is the fallback grade for contextless requests.
func sizeComplexity(promptChars int) domain.Complexity {
	if promptChars < constants.SimplePromptThreshold {
		return domain.ComplexitySimple
	}
	return domain.ComplexityModerate
}

// estimateTokens approximates token counts as ceil(chars/4).
func estimateTokens(chars int) int {
	return (chars + constants.TokenEstimateDivisor - 1) / constants.TokenEstimateDivisor
}
