package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestPayload_Validate(t *testing.T) {
	if errs := (Payload{}).Validate(); errs["body"] == "" {
		t.Error("empty payload should fail")
	}
	if errs := (Payload{"novelText": "x"}).Validate(); errs != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestImageGenerationRequest_Validate(t *testing.T) {
	valid := func() *ImageGenerationRequest {
		return &ImageGenerationRequest{
			NodeText:     "The gate opens.",
			EpisodeTitle: "Episode 1",
			EpisodeOrder: intPtr(0),
		}
	}

	tests := []struct {
		name      string
		mutate    func(*ImageGenerationRequest)
		wantField string
	}{
		{"valid", func(*ImageGenerationRequest) {}, ""},
		{"blank node text", func(r *ImageGenerationRequest) { r.NodeText = "   " }, "nodeText"},
		{"node text too long", func(r *ImageGenerationRequest) { r.NodeText = strings.Repeat("a", 1001) }, "nodeText"},
		{"missing episode order", func(r *ImageGenerationRequest) { r.EpisodeOrder = nil }, "episodeOrder"},
		{"negative episode order", func(r *ImageGenerationRequest) { r.EpisodeOrder = intPtr(-1) }, "episodeOrder"},
		{"negative node depth", func(r *ImageGenerationRequest) { r.NodeDepth = intPtr(-2) }, "nodeDepth"},
		{"situation too long", func(r *ImageGenerationRequest) { r.Situation = strings.Repeat("s", 201) }, "situation"},
		{"image style too long", func(r *ImageGenerationRequest) { r.ImageStyle = strings.Repeat("s", 101) }, "imageStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			errs := r.Validate()
			if tt.wantField == "" {
				if errs != nil {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestMaxLen_CountsCharactersNotBytes(t *testing.T) {
	// 1000 Hangul syllables are 3000 bytes but still within the bound.
	r := &ImageGenerationRequest{
		NodeText:     strings.Repeat("가", 1000),
		EpisodeTitle: "에피소드",
		EpisodeOrder: intPtr(1),
	}
	if errs := r.Validate(); errs != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestImageGenerationRequest_WantsImage(t *testing.T) {
	var r ImageGenerationRequest
	if err := json.Unmarshal([]byte(`{"nodeText":"x"}`), &r); err != nil {
		t.Fatal(err)
	}
	if !r.WantsImage() {
		t.Error("generateImage should default to true")
	}
	if err := json.Unmarshal([]byte(`{"generateImage":false}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.WantsImage() {
		t.Error("explicit false should be honoured")
	}
}

func TestSubtreeRegenerationRequest_Validate(t *testing.T) {
	r := &SubtreeRegenerationRequest{
		EpisodeTitle: "Ep",
		EpisodeOrder: intPtr(1),
		CurrentDepth: intPtr(0),
		MaxDepth:     intPtr(0),
		ParentNode:   &ParentNode{NodeID: "n1", Text: "", Depth: nil},
	}
	errs := r.Validate()
	for _, field := range []string{"maxDepth", "parentNode.text", "parentNode.depth"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error on %s, got %v", field, errs)
		}
	}
	if _, ok := errs["parentNode.nodeId"]; ok {
		t.Error("nodeId is valid and should not be reported")
	}

	r.ParentNode = nil
	if errs := r.Validate(); errs["parentNode"] == "" {
		t.Error("missing parent node should be reported")
	}
}

func TestChatMessageRequest_Validate(t *testing.T) {
	r := &ChatMessageRequest{
		CharacterID: "story_1_hero",
		UserMessage: "hello",
		ConversationHistory: []ConversationMessage{
			{Role: "user", Content: "hi"},
			{Role: "", Content: "x"},
		},
		MaxTokens: intPtr(5000),
	}
	errs := r.Validate()
	if _, ok := errs["conversationHistory[1].role"]; !ok {
		t.Errorf("expected history role error, got %v", errs)
	}
	if _, ok := errs["maxTokens"]; !ok {
		t.Errorf("expected maxTokens error, got %v", errs)
	}
	if _, ok := errs["conversationHistory[0].role"]; ok {
		t.Error("first history entry is valid")
	}
}

func TestFixedRequests_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		req    Validator
		fields []string
	}{
		{"character index", &CharacterIndexRequest{}, []string{"characterId", "name"}},
		{"character set", &CharacterSetRequest{}, []string{"characterId", "characterName"}},
		{"game progress", &GameProgressUpdateRequest{}, []string{"characterId", "content"}},
		{"novel index", &NovelIndexRequest{}, []string{"story_id", "title", "file_key", "bucket"}},
		{"style learn", &StyleLearnRequest{}, []string{"story_id"}},
		{"music", &MusicRequest{}, []string{"prompt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if len(errs) != len(tt.fields) {
				t.Errorf("got %d errors %v, want %d", len(errs), errs, len(tt.fields))
			}
			for _, f := range tt.fields {
				if _, ok := errs[f]; !ok {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}
