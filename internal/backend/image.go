package backend

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

// PlaceholderImageBase is the visibly fake image served when generation fails.
const PlaceholderImageBase = "https://via.placeholder.com/800x600/1a1a1a/ffffff?text="

// ImageClient talks to the scene image and style learning backend. Both
// operations degrade instead of failing.
type ImageClient struct {
	base
	now      func() time.Time
	newID    func() string
	generate Policy[*types.ImageGenerationRequest, *types.ImageGenerationResponse]
	style    Policy[*types.StyleLearnRequest, *types.StyleLearnResponse]
}

func NewImageClient(desc config.ServiceConfig, metrics *telemetry.Metrics, logger *slog.Logger) *ImageClient {
	return &ImageClient{
		base:     newBase(desc, metrics, logger),
		now:      time.Now,
		newID:    uuid.NewString,
		generate: fallbackTo(placeholderImage),
		style:    fallbackTo(emptyStyle),
	}
}

func (c *ImageClient) Policies() map[string]Mode {
	return map[string]Mode{
		config.OpGenerateImage: c.generate.Mode,
		config.OpLearnStyle:    c.style.Mode,
	}
}

type imageRequest struct {
	StoryID           string `json:"story_id"`
	NodeID            string `json:"node_id"`
	UserPrompt        string `json:"user_prompt"`
	ContextText       string `json:"context_text"`
	S3URL             string `json:"s3_url,omitempty"`
	ImageStyle        string `json:"image_style,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// GenerateImage illustrates one story node. When the caller opted out with
// generateImage=false it returns an empty record without calling out.
func (c *ImageClient) GenerateImage(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	if !req.WantsImage() {
		c.logger.InfoContext(ctx, "image generation skipped by request", "node_id", req.NodeID)
		return &types.ImageGenerationResponse{}, nil
	}

	op := config.OpGenerateImage
	return invoke(ctx, &c.base, op, c.generate, req, func(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
		body := c.buildImageRequest(req)
		if body.S3URL == "" {
			c.logger.ErrorContext(ctx, "image upload url missing, backend will not be able to store the image",
				"story_id", body.StoryID, "node_id", body.NodeID)
		}

		var raw map[string]any
		if err := c.postJSON(ctx, op, "/api/v1/generate-image", body, &raw); err != nil {
			return nil, err
		}
		imageURL := firstString(raw, imageURLKeys...)
		if imageURL == "" {
			return nil, ErrEmptyResponse
		}

		resp := &types.ImageGenerationResponse{
			ImageURL:       imageURL,
			FileKey:        imageURL,
			GeneratedAt:    c.now().UTC().Format(time.RFC3339),
			EnhancedPrompt: firstString(raw, enhancedPromptKeys...),
			StoryID:        firstString(raw, storyIDKeys...),
			NodeID:         firstString(raw, "nodeId", "node_id"),
		}
		if resp.StoryID == "" {
			resp.StoryID = body.StoryID
		}
		if resp.NodeID == "" {
			resp.NodeID = body.NodeID
		}
		return resp, nil
	})
}

func (c *ImageClient) buildImageRequest(req *types.ImageGenerationRequest) imageRequest {
	storyID := req.StoryID
	if storyID == "" {
		storyID = "story_" + c.newID()
	}
	nodeID := req.NodeID
	if nodeID == "" {
		nodeID = "node_" + c.newID()
	}
	prompt := req.EpisodeTitle + ": " + req.NodeText
	if req.Situation != "" {
		prompt += ". " + req.Situation
	}
	return imageRequest{
		StoryID:           storyID,
		NodeID:            nodeID,
		UserPrompt:        prompt,
		ContextText:       req.NodeText,
		S3URL:             req.ImageS3URL,
		ImageStyle:        req.ImageStyle,
		AdditionalContext: req.AdditionalContext,
	}
}

func placeholderImage(req *types.ImageGenerationRequest) *types.ImageGenerationResponse {
	imageURL := PlaceholderImageBase + url.QueryEscape(req.EpisodeTitle)
	return &types.ImageGenerationResponse{
		ImageURL:       imageURL,
		FileKey:        imageURL,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		EnhancedPrompt: req.NodeText,
		StoryID:        "mock_story",
		NodeID:         "mock_node",
		Degraded:       true,
	}
}

// LearnStyle asks the backend to learn the visual style of a novel.
func (c *ImageClient) LearnStyle(ctx context.Context, req *types.StyleLearnRequest) (*types.StyleLearnResponse, error) {
	op := config.OpLearnStyle
	return invoke(ctx, &c.base, op, c.style, req, func(ctx context.Context, req *types.StyleLearnRequest) (*types.StyleLearnResponse, error) {
		var raw map[string]any
		if err := c.postJSON(ctx, op, "/api/v1/learn-style", req, &raw); err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, ErrEmptyResponse
		}
		return &types.StyleLearnResponse{
			StoryID:           firstString(raw, "story_id", "storyId"),
			StyleSummary:      firstString(raw, "style_summary", "styleSummary"),
			Atmosphere:        firstString(raw, "atmosphere"),
			VisualStyle:       firstString(raw, "visual_style", "visualStyle"),
			CreatedAt:         firstString(raw, "created_at", "createdAt"),
			ThumbnailImageURL: firstString(raw, "thumbnail_image_url", "thumbnailImageUrl"),
		}, nil
	})
}

func emptyStyle(*types.StyleLearnRequest) *types.StyleLearnResponse {
	return &types.StyleLearnResponse{Degraded: true}
}

// Probe reports up when GET / answers {"status":"running"}.
func (c *ImageClient) Probe(ctx context.Context) bool {
	return c.probeStatus(ctx, "/", "running")
}
