// Package router classifies generation requests, selects a backend
// client, executes the call under the shared retry policy, and records
// performance metrics. Failures leave the router normalized into a
// small typed taxonomy.
//
// IMPORTANT: This package may import internal/backend, internal/retry,
// and the shared leaf packages. It MUST NOT import internal/pipeline,
// internal/workflow, or internal/cli.
package router

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/backend"
	"github.com/loomworks/loom/internal/clock"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/retry"
)

// Router routes the five generation operations to backend clients.
// Construct one per process and share it; all methods are safe for
// concurrent use.
type Router struct {
	factory *Factory
	metrics *MetricsCollector
	policy  retry.Policy
	clk     clock.Clock
	logger  zerolog.Logger
}

// Option is a functional option for configuring Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithClock sets the clock used for metric durations.
func WithClock(clk clock.Clock) Option {
	return func(r *Router) {
		r.clk = clk
	}
}

// WithMetrics sets the metrics collector. Pass a shared collector when
// the stats command should see this router's calls.
func WithMetrics(metrics *MetricsCollector) Option {
	return func(r *Router) {
		r.metrics = metrics
	}
}

// New creates a Router over the given factory and retry policy. The
// policy's retryable predicate is replaced with the taxonomy's.
func New(factory *Factory, policy retry.Policy, opts ...Option) *Router {
	r := &Router{
		factory: factory,
		policy:  policy.WithRetryable(IsRetryable),
		metrics: NewMetricsCollector(),
		clk:     clock.RealClock{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Metrics exposes the collector for aggregate queries.
func (r *Router) Metrics() *MetricsCollector {
	return r.metrics
}

// GenerateText routes a plain text generation request.
func (r *Router) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	var out string
	err := r.route(ctx, req, func(ctx context.Context, client backend.Client) error {
		var callErr error
		out, callErr = client.GenerateText(ctx, req)
		return callErr
	})
	return out, err
}

// GenerateComponent routes a component generation request.
func (r *Router) GenerateComponent(ctx context.Context, req domain.ComponentRequest) (string, error) {
	var out string
	err := r.route(ctx, req, func(ctx context.Context, client backend.Client) error {
		var callErr error
		out, callErr = client.GenerateComponent(ctx, req)
		return callErr
	})
	return out, err
}

// RefineComponent routes a component refinement request.
func (r *Router) RefineComponent(ctx context.Context, req domain.RefineRequest) (string, error) {
	var out string
	err := r.route(ctx, req, func(ctx context.Context, client backend.Client) error {
		var callErr error
		out, callErr = client.RefineComponent(ctx, req)
		return callErr
	})
	return out, err
}

// RunWorkflow routes a backend-driven workflow request. The selected
// client must be tool capable.
func (r *Router) RunWorkflow(ctx context.Context, req domain.WorkflowRequest) (*domain.GenerateResult, error) {
	var result *domain.GenerateResult
	err := r.route(ctx, req, func(ctx context.Context, client backend.Client) error {
		tool, ok := client.(backend.ToolClient)
		if !ok {
			return agentSDKRequired(client)
		}
		var callErr error
		result, callErr = tool.RunWorkflow(ctx, req)
		return callErr
	})
	return result, err
}

// GenerateWithTools routes a tool-augmented generation request. The
// selected client must be tool capable.
func (r *Router) GenerateWithTools(ctx context.Context, req domain.ToolRequest) (*domain.GenerateResult, error) {
	var result *domain.GenerateResult
	err := r.route(ctx, req, func(ctx context.Context, client backend.Client) error {
		tool, ok := client.(backend.ToolClient)
		if !ok {
			return agentSDKRequired(client)
		}
		var callErr error
		result, callErr = tool.GenerateWithTools(ctx, req)
		return callErr
	})
	return result, err
}

// route is the shared path: classify, select, fast-fail tool mismatches,
// execute under the retry policy, record a metric win or lose, and
// normalize any failure.
func (r *Router) route(ctx context.Context, req domain.Request, fn func(context.Context, backend.Client) error) error {
	meta := Classify(req)
	start := r.clk.Now()

	err := r.dispatch(ctx, req, meta, fn)

	r.metrics.Record(req.Kind(), r.clk.Now().Sub(start), err == nil)

	if err != nil {
		routed := Normalize(err)
		r.logger.Error().
			Str("operation", req.Kind().String()).
			Str("category", routed.Category.String()).
			Bool("retryable", routed.Retryable).
			Err(routed.Err).
			Msg("routed call failed")
		return routed
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, req domain.Request, meta domain.OperationMetadata, fn func(context.Context, backend.Client) error) error {
	client, err := r.factory.ClientFor(meta)
	if err != nil {
		return err
	}

	// Fast fail before any backend work when tools are required but the
	// selected client cannot execute them.
	if meta.RequiresTools && !client.SupportsTools() {
		return agentSDKRequired(client)
	}

	r.logger.Debug().
		Str("operation", req.Kind().String()).
		Str("complexity", meta.Complexity.String()).
		Str("client", client.Kind()).
		Bool("requires_tools", meta.RequiresTools).
		Int("estimated_tokens", meta.EstimatedTokens).
		Msg("routing request")

	return r.policy.Do(ctx, r.logger, req.Kind().String(), func(ctx context.Context) error {
		return fn(ctx, client)
	})
}

func agentSDKRequired(client backend.Client) error {
	return fmt.Errorf("%w: %s cannot execute tools", loomerrors.ErrAgentSDKRequired, client.Kind())
}
