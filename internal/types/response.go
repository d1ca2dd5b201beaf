package types

// SubtreeRegenerationResponse is the canonical shape returned to callers no
// matter which naming scheme the analysis backend used.
type SubtreeRegenerationResponse struct {
	Status                string            `json:"status"`
	Message               string            `json:"message"`
	RegeneratedNodes      []RegeneratedNode `json:"regeneratedNodes"`
	TotalNodesRegenerated int               `json:"totalNodesRegenerated"`
}

type RegeneratedNode struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Choices  []Choice          `json:"choices"`
	Depth    int               `json:"depth"`
	ParentID string            `json:"parentId,omitempty"`
	Details  *NodeDetails      `json:"details,omitempty"`
	Children []RegeneratedNode `json:"children,omitempty"`
}

type NodeDetails struct {
	Situation   string            `json:"situation,omitempty"`
	NPCEmotions map[string]string `json:"npcEmotions,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

type Choice struct {
	Text              string   `json:"text"`
	Tags              []string `json:"tags,omitempty"`
	ImmediateReaction string   `json:"immediateReaction,omitempty"`
}

// ImageGenerationResponse describes a generated (or placeholder) scene image.
// Degraded is set when the image is a placeholder.
type ImageGenerationResponse struct {
	ImageURL       string `json:"imageUrl"`
	FileKey        string `json:"fileKey"`
	GeneratedAt    string `json:"generatedAt"`
	EnhancedPrompt string `json:"enhancedPrompt,omitempty"`
	StoryID        string `json:"storyId,omitempty"`
	NodeID         string `json:"nodeId,omitempty"`
	Degraded       bool   `json:"degraded,omitempty"`
}

// StyleLearnResponse keeps the image backend's snake_case names, which is the
// contract callers already consume.
type StyleLearnResponse struct {
	StoryID           string `json:"story_id,omitempty"`
	StyleSummary      string `json:"style_summary,omitempty"`
	Atmosphere        string `json:"atmosphere,omitempty"`
	VisualStyle       string `json:"visual_style,omitempty"`
	CreatedAt         string `json:"created_at,omitempty"`
	ThumbnailImageURL string `json:"thumbnail_image_url,omitempty"`
	Degraded          bool   `json:"degraded,omitempty"`
}

type ChatMessageResponse struct {
	CharacterID string      `json:"characterId"`
	AIMessage   string      `json:"aiMessage"`
	Sources     []RAGSource `json:"sources"`
	Timestamp   string      `json:"timestamp"`
	Degraded    bool        `json:"degraded,omitempty"`
}

type RAGSource struct {
	Text       string   `json:"text"`
	Score      *float64 `json:"score,omitempty"`
	SourceType string   `json:"sourceType,omitempty"`
}

// MusicResponse keeps the music backend's snake_case names.
type MusicResponse struct {
	Analysis MusicAnalysis `json:"analysis"`
	Music    MusicTrack    `json:"music"`
	Degraded bool          `json:"degraded,omitempty"`
}

type MusicAnalysis struct {
	PrimaryMood   string   `json:"primary_mood"`
	SecondaryMood string   `json:"secondary_mood,omitempty"`
	Intensity     float64  `json:"intensity"`
	EmotionalTags []string `json:"emotional_tags,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
}

type MusicTrack struct {
	Mood         string `json:"mood"`
	Filename     string `json:"filename"`
	FilePath     string `json:"file_path,omitempty"`
	StreamingURL string `json:"streaming_url,omitempty"`
}
