package router

import (
	"fmt"

	"github.com/loomworks/loom/internal/backend"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// Factory selects a concrete backend client for a classified request.
// Selection is keyed by (complexity, requiresTools, requiresStreaming):
// any of the three demanding values steers toward the tool-capable
// client, everything else lands on the configured default.
type Factory struct {
	defaultClient backend.Client
	toolClient    backend.ToolClient
}

// NewFactory creates a Factory. Either client may be nil; selection
// falls back to whichever is present, and fails with a selection error
// only when no client exists at all.
func NewFactory(defaultClient backend.Client, toolClient backend.ToolClient) *Factory {
	return &Factory{
		defaultClient: defaultClient,
		toolClient:    toolClient,
	}
}

// ClientFor returns the client for the classified request.
//
// A tool-requiring call may still land on the default client when no
// tool-capable one is registered; the router's fast-fail check turns
// that into AGENT_SDK_REQUIRED rather than silently degrading.
func (f *Factory) ClientFor(meta domain.OperationMetadata) (backend.Client, error) {
	demanding := meta.RequiresTools || meta.RequiresStreaming || meta.Complexity == domain.ComplexityComplex

	if demanding && f.toolClient != nil {
		return f.toolClient, nil
	}
	if f.defaultClient != nil {
		return f.defaultClient, nil
	}
	if f.toolClient != nil {
		return f.toolClient, nil
	}
	return nil, fmt.Errorf("%w: no backend clients registered", loomerrors.ErrClientSelectionFailed)
}
