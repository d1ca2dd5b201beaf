package backend

import (
	"context"
	"log/slog"

	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

// MusicClient talks to the background music recommendation backend.
type MusicClient struct {
	base
	recommend Policy[*types.MusicRequest, *types.MusicResponse]
}

func NewMusicClient(desc config.ServiceConfig, metrics *telemetry.Metrics, logger *slog.Logger) *MusicClient {
	return &MusicClient{
		base:      newBase(desc, metrics, logger),
		recommend: fallbackTo(neutralMusic),
	}
}

func (c *MusicClient) Policies() map[string]Mode {
	return map[string]Mode{config.OpRecommendMusic: c.recommend.Mode}
}

// Recommend picks a track for the mood of prompt.
func (c *MusicClient) Recommend(ctx context.Context, req *types.MusicRequest) (*types.MusicResponse, error) {
	op := config.OpRecommendMusic
	return invoke(ctx, &c.base, op, c.recommend, req, func(ctx context.Context, req *types.MusicRequest) (*types.MusicResponse, error) {
		var raw map[string]any
		if err := c.postJSON(ctx, op, "/api/analyze", req, &raw); err != nil {
			return nil, err
		}
		resp := reconcileMusic(raw)
		if resp == nil {
			return nil, ErrEmptyResponse
		}
		return resp, nil
	})
}

func neutralMusic(*types.MusicRequest) *types.MusicResponse {
	return &types.MusicResponse{
		Analysis: types.MusicAnalysis{
			PrimaryMood: "peaceful",
			Intensity:   0.5,
			Reasoning:   "AI-BGM server unavailable, using default mood",
		},
		Music: types.MusicTrack{
			Mood:     "peaceful",
			Filename: "default.mp3",
		},
		Degraded: true,
	}
}

// Probe reports up when GET /api/health answers {"status":"healthy"}.
func (c *MusicClient) Probe(ctx context.Context) bool {
	return c.probeStatus(ctx, "/api/health", "healthy")
}
