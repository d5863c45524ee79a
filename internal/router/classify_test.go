package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loomworks/loom/internal/domain"
)

func TestClassify(t *testing.T) {
	shortPrompt := "make a button"
	longPrompt := strings.Repeat("describe the landing page in detail. ", 20) // > 500 chars
	richContext := domain.GenerationContext{
		Requirements: strings.Repeat("r", 800),
		Types:        strings.Repeat("t", 800),
		Brand:        strings.Repeat("b", 800),
	}
	thinContext := domain.GenerationContext{Requirements: "one line"}

	tests := []struct {
		name           string
		req            domain.Request
		wantComplexity domain.Complexity
		wantTools      bool
	}{
		{
			name:           "short text prompt is simple",
			req:            domain.TextRequest{Prompt: shortPrompt},
			wantComplexity: domain.ComplexitySimple,
		},
		{
			name:           "long text prompt is moderate",
			req:            domain.TextRequest{Prompt: longPrompt},
			wantComplexity: domain.ComplexityModerate,
		},
		{
			name:           "workflow is always complex regardless of prompt length",
			req:            domain.WorkflowRequest{Prompt: "x"},
			wantComplexity: domain.ComplexityComplex,
			wantTools:      true,
		},
		{
			name:           "tool request is always complex",
			req:            domain.ToolRequest{Prompt: "x", Tools: []domain.ToolSpec{{Name: "Write"}}},
			wantComplexity: domain.ComplexityComplex,
			wantTools:      true,
		},
		{
			name:           "component with rich context and large payload is complex",
			req:            domain.ComponentRequest{Prompt: shortPrompt, Context: richContext},
			wantComplexity: domain.ComplexityComplex,
		},
		{
			name:           "component with rich context but small payload is moderate",
			req:            domain.ComponentRequest{Prompt: "x", Context: domain.GenerationContext{Requirements: "r", Types: "t", Brand: "b"}},
			wantComplexity: domain.ComplexityModerate,
		},
		{
			name:           "component with large but not rich context is moderate",
			req:            domain.ComponentRequest{Prompt: shortPrompt, Context: domain.GenerationContext{Requirements: strings.Repeat("r", 3000)}},
			wantComplexity: domain.ComplexityModerate,
		},
		{
			name:           "component with thin context falls to the size default",
			req:            domain.ComponentRequest{Prompt: shortPrompt, Context: thinContext},
			wantComplexity: domain.ComplexitySimple,
		},
		{
			name:           "refinement counts the code payload toward size",
			req:            domain.RefineRequest{Prompt: "tweak", Code: strings.Repeat("c", 3000)},
			wantComplexity: domain.ComplexityModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := Classify(tt.req)
			assert.Equal(t, tt.wantComplexity, meta.Complexity)
			assert.Equal(t, tt.wantTools, meta.RequiresTools)
			assert.Equal(t, tt.req.Kind(), meta.Kind)
		})
	}
}

func TestClassifyDerivedFlags(t *testing.T) {
	t.Run("workflow requires streaming and multi-step", func(t *testing.T) {
		meta := Classify(domain.WorkflowRequest{Prompt: "run the pipeline"})
		assert.True(t, meta.RequiresStreaming)
		assert.True(t, meta.RequiresMultiStep)
	})

	t.Run("tool runs require streaming and multi-step", func(t *testing.T) {
		meta := Classify(domain.ToolRequest{Prompt: "fix the build", Tools: []domain.ToolSpec{{Name: "Write"}}})
		assert.True(t, meta.RequiresStreaming)
		assert.True(t, meta.RequiresMultiStep)
	})

	t.Run("working directory implies file access", func(t *testing.T) {
		meta := Classify(domain.ComponentRequest{
			Prompt:  "build",
			Context: domain.GenerationContext{WorkingDir: "/tmp/project"},
		})
		assert.True(t, meta.RequiresFileAccess)
	})

	t.Run("component output requires validation", func(t *testing.T) {
		assert.True(t, Classify(domain.ComponentRequest{Prompt: "x"}).RequiresValidation)
		assert.True(t, Classify(domain.RefineRequest{Prompt: "x"}).RequiresValidation)
		assert.False(t, Classify(domain.TextRequest{Prompt: "x"}).RequiresValidation)
	})
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		req  domain.Request
		want int
	}{
		{
			name: "text counts prompt only",
			req:  domain.TextRequest{Prompt: strings.Repeat("a", 100)},
			want: 25,
		},
		{
			name: "rounding is ceil",
			req:  domain.TextRequest{Prompt: "abcde"}, // 5 chars -> ceil(5/4) = 2
			want: 2,
		},
		{
			name: "refinement counts prompt plus code plus context",
			req: domain.RefineRequest{
				Prompt:  strings.Repeat("p", 40),
				Code:    strings.Repeat("c", 40),
				Context: domain.GenerationContext{Requirements: strings.Repeat("r", 40)},
			},
			want: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.req).EstimatedTokens)
		})
	}
}
