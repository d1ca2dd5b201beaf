package types

import "strconv"

// Payload is the open key/value body used by the analysis operations, whose
// downstream schema is not fixed.
type Payload map[string]any

func (p Payload) Validate() FieldErrors {
	if len(p) == 0 {
		return FieldErrors{"body": "must be a non-empty JSON object"}
	}
	return nil
}

// SubtreeRegenerationRequest asks the analysis backend to rebuild the story
// tree below one node.
type SubtreeRegenerationRequest struct {
	EpisodeTitle     string      `json:"episodeTitle"`
	EpisodeOrder     *int        `json:"episodeOrder"`
	ParentNode       *ParentNode `json:"parentNode"`
	CurrentDepth     *int        `json:"currentDepth"`
	MaxDepth         *int        `json:"maxDepth"`
	NovelContext     string      `json:"novelContext,omitempty"`
	PreviousChoices  []string    `json:"previousChoices,omitempty"`
	SelectedGaugeIDs []string    `json:"selectedGaugeIds,omitempty"`
	Summary          string      `json:"summary,omitempty"`
	CharactersJSON   string      `json:"charactersJson,omitempty"`
	GaugesJSON       string      `json:"gaugesJson,omitempty"`
}

type ParentNode struct {
	NodeID      string            `json:"nodeId"`
	Text        string            `json:"text"`
	Choices     []string          `json:"choices,omitempty"`
	Situation   string            `json:"situation,omitempty"`
	NPCEmotions map[string]string `json:"npcEmotions,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Depth       *int              `json:"depth"`
}

func (r *SubtreeRegenerationRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("episodeTitle", r.EpisodeTitle, 200)
	c.requiredInt("episodeOrder", r.EpisodeOrder, 0)
	c.requiredInt("currentDepth", r.CurrentDepth, 0)
	c.requiredInt("maxDepth", r.MaxDepth, 1)
	c.maxLen("novelContext", r.NovelContext, 10000)

	if r.ParentNode == nil {
		c.add("parentNode", "is required")
	} else {
		p := r.ParentNode
		c.text("parentNode.nodeId", p.NodeID, 100)
		c.text("parentNode.text", p.Text, 1000)
		c.maxLen("parentNode.situation", p.Situation, 200)
		c.requiredInt("parentNode.depth", p.Depth, 0)
	}
	return c.result()
}

// ImageGenerationRequest describes one story node to illustrate.
type ImageGenerationRequest struct {
	StoryID           string            `json:"storyId,omitempty"`
	NodeID            string            `json:"nodeId,omitempty"`
	NodeText          string            `json:"nodeText"`
	Situation         string            `json:"situation,omitempty"`
	NPCEmotions       map[string]string `json:"npcEmotions,omitempty"`
	EpisodeTitle      string            `json:"episodeTitle"`
	EpisodeOrder      *int              `json:"episodeOrder"`
	NodeDepth         *int              `json:"nodeDepth,omitempty"`
	ImageStyle        string            `json:"imageStyle,omitempty"`
	AdditionalContext string            `json:"additionalContext,omitempty"`
	// GenerateImage defaults to true when omitted.
	GenerateImage *bool  `json:"generateImage,omitempty"`
	NovelS3Bucket string `json:"novelS3Bucket,omitempty"`
	NovelS3Key    string `json:"novelS3Key,omitempty"`
	ImageS3URL    string `json:"imageS3Url,omitempty"`
}

// WantsImage reports whether the caller asked for an image at all.
func (r *ImageGenerationRequest) WantsImage() bool {
	return r.GenerateImage == nil || *r.GenerateImage
}

func (r *ImageGenerationRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("nodeText", r.NodeText, 1000)
	c.maxLen("situation", r.Situation, 200)
	c.text("episodeTitle", r.EpisodeTitle, 200)
	c.requiredInt("episodeOrder", r.EpisodeOrder, 0)
	c.minInt("nodeDepth", r.NodeDepth, 0)
	c.maxLen("imageStyle", r.ImageStyle, 100)
	c.maxLen("additionalContext", r.AdditionalContext, 500)
	return c.result()
}

// StyleLearnRequest uses the image backend's snake_case names on the wire.
type StyleLearnRequest struct {
	StoryID           string `json:"story_id"`
	NovelText         string `json:"novel_text,omitempty"`
	Title             string `json:"title,omitempty"`
	NovelS3Bucket     string `json:"novel_s3_bucket,omitempty"`
	NovelS3Key        string `json:"novel_s3_key,omitempty"`
	ThumbnailS3URL    string `json:"thumbnail_s3_url,omitempty"`
	ThumbnailS3Bucket string `json:"thumbnail_s3_bucket,omitempty"`
	ThumbnailS3Key    string `json:"thumbnail_s3_key,omitempty"`
}

func (r *StyleLearnRequest) Validate() FieldErrors {
	var c fieldChecker
	c.required("story_id", r.StoryID)
	return c.result()
}

// CharacterIndexRequest carries a character profile for the chat backend.
type CharacterIndexRequest struct {
	CharacterID     string            `json:"characterId"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Personality     string            `json:"personality,omitempty"`
	Background      string            `json:"background,omitempty"`
	DialogueSamples []string          `json:"dialogueSamples,omitempty"`
	Relationships   map[string]string `json:"relationships,omitempty"`
	AdditionalInfo  map[string]any    `json:"additionalInfo,omitempty"`
}

func (r *CharacterIndexRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("characterId", r.CharacterID, 100)
	c.text("name", r.Name, 200)
	c.maxLen("description", r.Description, 2000)
	c.maxLen("personality", r.Personality, 1000)
	c.maxLen("background", r.Background, 2000)
	return c.result()
}

type CharacterSetRequest struct {
	CharacterID          string `json:"characterId"`
	CharacterName        string `json:"characterName"`
	CharacterDescription string `json:"characterDescription,omitempty"`
}

func (r *CharacterSetRequest) Validate() FieldErrors {
	var c fieldChecker
	c.required("characterId", r.CharacterID)
	c.required("characterName", r.CharacterName)
	return c.result()
}

// ChatMessageRequest is one user turn in a character conversation.
type ChatMessageRequest struct {
	CharacterID         string                `json:"characterId"`
	CharacterName       string                `json:"characterName,omitempty"`
	StoryID             string                `json:"storyId,omitempty"`
	UserMessage         string                `json:"userMessage"`
	ConversationHistory []ConversationMessage `json:"conversationHistory,omitempty"`
	MaxTokens           *int                  `json:"maxTokens,omitempty"`
}

type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r *ChatMessageRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("characterId", r.CharacterID, 100)
	c.maxLen("characterName", r.CharacterName, 100)
	c.text("userMessage", r.UserMessage, 2000)
	for i, m := range r.ConversationHistory {
		prefix := "conversationHistory[" + strconv.Itoa(i) + "]."
		c.text(prefix+"role", m.Role, 20)
		c.text(prefix+"content", m.Content, 2000)
	}
	c.minInt("maxTokens", r.MaxTokens, 1)
	c.maxInt("maxTokens", r.MaxTokens, 4000)
	return c.result()
}

type GameProgressUpdateRequest struct {
	CharacterID string         `json:"characterId"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (r *GameProgressUpdateRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("characterId", r.CharacterID, 100)
	c.text("content", r.Content, 5000)
	return c.result()
}

// NovelIndexRequest points the chat backend at a stored novel to train on.
type NovelIndexRequest struct {
	StoryID string `json:"story_id"`
	Title   string `json:"title"`
	FileKey string `json:"file_key"`
	Bucket  string `json:"bucket"`
}

func (r *NovelIndexRequest) Validate() FieldErrors {
	var c fieldChecker
	c.text("story_id", r.StoryID, 100)
	c.text("title", r.Title, 500)
	c.required("file_key", r.FileKey)
	c.required("bucket", r.Bucket)
	return c.result()
}

type MusicRequest struct {
	Prompt string `json:"prompt"`
}

func (r *MusicRequest) Validate() FieldErrors {
	var c fieldChecker
	c.required("prompt", r.Prompt)
	return c.result()
}
