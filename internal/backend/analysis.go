package backend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

// AnalysisClient talks to the novel analysis and story generation backend.
// Every operation is fail-fast: partial stories are never substituted.
type AnalysisClient struct {
	base
	payload Policy[types.Payload, types.Payload]
	subtree Policy[*types.SubtreeRegenerationRequest, *types.SubtreeRegenerationResponse]
}

func NewAnalysisClient(desc config.ServiceConfig, metrics *telemetry.Metrics, logger *slog.Logger) *AnalysisClient {
	return &AnalysisClient{
		base:    newBase(desc, metrics, logger),
		payload: failFast[types.Payload, types.Payload](),
		subtree: failFast[*types.SubtreeRegenerationRequest, *types.SubtreeRegenerationResponse](),
	}
}

// Policies lists the failure mode of every operation.
func (c *AnalysisClient) Policies() map[string]Mode {
	return map[string]Mode{
		config.OpAnalyze:             c.payload.Mode,
		config.OpAnalyzeFromS3:       c.payload.Mode,
		config.OpGenerate:            c.payload.Mode,
		config.OpGenerateNextEpisode: c.payload.Mode,
		config.OpFinalizeAnalysis:    c.payload.Mode,
		config.OpRegenerateSubtree:   c.subtree.Mode,
	}
}

func (c *AnalysisClient) Analyze(ctx context.Context, p types.Payload) (types.Payload, error) {
	return c.forward(ctx, config.OpAnalyze, "/analyze", p)
}

// AnalyzeFromS3 forwards a storage locator; the backend fetches the text.
func (c *AnalysisClient) AnalyzeFromS3(ctx context.Context, p types.Payload) (types.Payload, error) {
	return c.forward(ctx, config.OpAnalyzeFromS3, "/analyze-from-s3", p)
}

func (c *AnalysisClient) Generate(ctx context.Context, p types.Payload) (types.Payload, error) {
	return c.forward(ctx, config.OpGenerate, "/generate", p)
}

func (c *AnalysisClient) GenerateNextEpisode(ctx context.Context, p types.Payload) (types.Payload, error) {
	return c.forward(ctx, config.OpGenerateNextEpisode, "/generate-next-episode", p)
}

func (c *AnalysisClient) FinalizeAnalysis(ctx context.Context, p types.Payload) (types.Payload, error) {
	return c.forward(ctx, config.OpFinalizeAnalysis, "/finalize-analysis", p)
}

func (c *AnalysisClient) forward(ctx context.Context, op, path string, p types.Payload) (types.Payload, error) {
	return invoke(ctx, &c.base, op, c.payload, p, func(ctx context.Context, p types.Payload) (types.Payload, error) {
		var out types.Payload
		if err := c.postJSON(ctx, op, path, p, &out); err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, ErrEmptyResponse
		}
		return out, nil
	})
}

func (c *AnalysisClient) RegenerateSubtree(ctx context.Context, req *types.SubtreeRegenerationRequest) (*types.SubtreeRegenerationResponse, error) {
	op := config.OpRegenerateSubtree
	return invoke(ctx, &c.base, op, c.subtree, req, func(ctx context.Context, req *types.SubtreeRegenerationRequest) (*types.SubtreeRegenerationResponse, error) {
		var raw map[string]any
		if err := c.postJSON(ctx, op, "/regenerate-subtree", req, &raw); err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, ErrEmptyResponse
		}
		return reconcileSubtree(raw), nil
	})
}

// Probe reports up when GET /health returns any body.
func (c *AnalysisClient) Probe(ctx context.Context) bool {
	if _, err := c.do(ctx, config.OpProbe, http.MethodGet, "/health", nil); err != nil {
		c.logger.WarnContext(ctx, "health probe failed", "error", err)
		return false
	}
	return true
}
