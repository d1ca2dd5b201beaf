package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

func intPtr(v int) *int { return &v }

func imageRequest1() *types.ImageGenerationRequest {
	return &types.ImageGenerationRequest{
		NodeText:     "The knight enters the hall",
		Situation:    "night falls",
		EpisodeTitle: "Episode 1",
		EpisodeOrder: intPtr(1),
		ImageS3URL:   "https://bucket.example/upload?sig=abc",
	}
}

func newTestImageClient(baseURL string, timeout time.Duration) *ImageClient {
	c := NewImageClient(testDesc("Image", baseURL, timeout, config.OpGenerateImage, config.OpLearnStyle), testMetrics(), discardLogger())
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	c.newID = func() string { return "fixed" }
	return c
}

func TestImage_GenerateTranslatesRequestAndResponse(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/generate-image" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		jsonHandler(t, `{"image_url":"https://cdn.example/a.png","enhanced_prompt":"a knight","story_id":"story_fixed","node_id":"n-9"}`, &seen)(w, r)
	}))
	defer srv.Close()

	c := newTestImageClient(srv.URL, time.Second)
	resp, err := c.GenerateImage(context.Background(), imageRequest1())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen["user_prompt"] != "Episode 1: The knight enters the hall. night falls" {
		t.Errorf("user_prompt = %v", seen["user_prompt"])
	}
	if seen["context_text"] != "The knight enters the hall" {
		t.Errorf("context_text = %v", seen["context_text"])
	}
	if seen["story_id"] != "story_fixed" || seen["node_id"] != "node_fixed" {
		t.Errorf("synthesized ids = %v / %v", seen["story_id"], seen["node_id"])
	}
	if seen["s3_url"] != "https://bucket.example/upload?sig=abc" {
		t.Errorf("s3_url = %v", seen["s3_url"])
	}

	want := types.ImageGenerationResponse{
		ImageURL:       "https://cdn.example/a.png",
		FileKey:        "https://cdn.example/a.png",
		GeneratedAt:    "2026-01-02T03:04:05Z",
		EnhancedPrompt: "a knight",
		StoryID:        "story_fixed",
		NodeID:         "n-9",
	}
	if *resp != want {
		t.Errorf("got %+v, want %+v", *resp, want)
	}
}

func TestImage_BackendDownServesPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		baseURL func(t *testing.T) (string, func())
	}{
		{"unreachable", func(t *testing.T) (string, func()) { return closedURL(t), func() {} }},
		{"timeout", func(t *testing.T) (string, func()) {
			srv := httptest.NewServer(http.HandlerFunc(slowHandler))
			return srv.URL, srv.Close
		}},
		{"missing image url", func(t *testing.T) (string, func()) {
			srv := httptest.NewServer(jsonHandler(t, `{"enhanced_prompt":"x"}`, nil))
			return srv.URL, srv.Close
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, done := tt.baseURL(t)
			defer done()

			c := newTestImageClient(u, 50*time.Millisecond)
			resp, err := c.GenerateImage(context.Background(), imageRequest1())
			if err != nil {
				t.Fatalf("fallback expected, got error %v", err)
			}
			if !resp.Degraded {
				t.Error("placeholder must be marked degraded")
			}
			if resp.ImageURL != PlaceholderImageBase+"Episode+1" {
				t.Errorf("imageUrl = %q", resp.ImageURL)
			}
			if resp.StoryID != "mock_story" || resp.NodeID != "mock_node" {
				t.Errorf("ids = %q / %q", resp.StoryID, resp.NodeID)
			}
			if resp.EnhancedPrompt != "The knight enters the hall" {
				t.Errorf("enhancedPrompt = %q", resp.EnhancedPrompt)
			}
		})
	}
}

func TestImage_GenerateImageFalseSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	off := false
	req := imageRequest1()
	req.GenerateImage = &off

	resp, err := newTestImageClient(srv.URL, time.Second).GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no downstream call, got %d", calls.Load())
	}
	if resp.ImageURL != "" || resp.Degraded {
		t.Errorf("expected empty record, got %+v", resp)
	}
}

func TestImage_LearnStyle(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"storyId":"s1","style_summary":"noir","visual_style":"ink","thumbnail_image_url":"https://cdn.example/t.png"}`, nil))
	defer srv.Close()

	resp, err := newTestImageClient(srv.URL, time.Second).LearnStyle(context.Background(), &types.StyleLearnRequest{StoryID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StoryID != "s1" || resp.StyleSummary != "noir" || resp.VisualStyle != "ink" {
		t.Errorf("unexpected record %+v", resp)
	}
	if resp.Degraded {
		t.Error("real response should not be degraded")
	}
}

func TestImage_LearnStyleFallsBackToEmptyRecord(t *testing.T) {
	resp, err := newTestImageClient(closedURL(t), time.Second).LearnStyle(context.Background(), &types.StyleLearnRequest{StoryID: "s1"})
	if err != nil {
		t.Fatalf("fallback expected, got error %v", err)
	}
	if *resp != (types.StyleLearnResponse{Degraded: true}) {
		t.Errorf("expected empty degraded record, got %+v", resp)
	}
}

func TestImage_Probe(t *testing.T) {
	running := httptest.NewServer(jsonHandler(t, `{"status":"running"}`, nil))
	defer running.Close()
	starting := httptest.NewServer(jsonHandler(t, `{"status":"starting"}`, nil))
	defer starting.Close()

	if !newTestImageClient(running.URL, time.Second).Probe(context.Background()) {
		t.Error("running should be up")
	}
	if newTestImageClient(starting.URL, time.Second).Probe(context.Background()) {
		t.Error("non-running status should be down")
	}
}

func TestPlaceholderImage_EscapesTitle(t *testing.T) {
	resp := placeholderImage(&types.ImageGenerationRequest{EpisodeTitle: "새로운 시작 & 끝"})
	if strings.Contains(resp.ImageURL, " ") || strings.Contains(resp.ImageURL, "&끝") {
		t.Errorf("title should be query escaped: %s", resp.ImageURL)
	}
	if !strings.HasPrefix(resp.ImageURL, PlaceholderImageBase) {
		t.Errorf("unexpected url %s", resp.ImageURL)
	}
}
