package backend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/skRookies2team/Backend-Relay/internal/types"
)

// Downstreams have shipped several naming schemes for the same fields. Each
// concept below has one function that tries its names in a fixed order; the
// first name present with a non-null value wins, even if a later alias holds
// a different value.

var (
	nodeIDKeys           = []string{"id", "nodeId", "node_id"}
	parentIDKeys         = []string{"parentId", "parent_id"}
	regeneratedNodesKeys = []string{"regeneratedNodes", "regenerated_nodes"}
	totalNodesKeys       = []string{"totalNodesRegenerated", "total_nodes_regenerated"}
	npcEmotionsKeys      = []string{"npcEmotions", "npc_emotions"}
	immediateKeys        = []string{"immediateReaction", "immediate_reaction"}

	imageURLKeys       = []string{"imageUrl", "image_url"}
	enhancedPromptKeys = []string{"enhancedPrompt", "enhanced_prompt"}
	storyIDKeys        = []string{"storyId", "story_id"}

	chatReplyKeys  = []string{"aiMessage", "ai_message", "reply"}
	sourceTypeKeys = []string{"sourceType", "source_type"}

	primaryMoodKeys   = []string{"primaryMood", "primary_mood"}
	secondaryMoodKeys = []string{"secondaryMood", "secondary_mood"}
	emotionalTagsKeys = []string{"emotionalTags", "emotional_tags"}
	filePathKeys      = []string{"filePath", "file_path"}
	streamingURLKeys  = []string{"streamingUrl", "streaming_url"}
)

func first(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	v, ok := first(m, keys...)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstInt(m map[string]any, keys ...string) (int, bool) {
	v, ok := first(m, keys...)
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	return int(f), ok
}

func firstFloat(m map[string]any, keys ...string) (float64, bool) {
	v, ok := first(m, keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	v, _ := first(m, keys...)
	obj, _ := v.(map[string]any)
	return obj
}

func firstList(m map[string]any, keys ...string) []any {
	v, _ := first(m, keys...)
	list, _ := v.([]any)
	return list
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		if s, ok := val.(string); ok {
			out[k] = s
		} else if val != nil {
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// reconcileSubtree maps any known subtree response shape to the canonical one.
func reconcileSubtree(raw map[string]any) *types.SubtreeRegenerationResponse {
	nodes := reconcileNodes(firstList(raw, regeneratedNodesKeys...))
	total, ok := firstInt(raw, totalNodesKeys...)
	if !ok {
		total = countNodes(nodes)
	}
	return &types.SubtreeRegenerationResponse{
		Status:                firstString(raw, "status"),
		Message:               firstString(raw, "message"),
		RegeneratedNodes:      nodes,
		TotalNodesRegenerated: total,
	}
}

func reconcileNodes(list []any) []types.RegeneratedNode {
	out := make([]types.RegeneratedNode, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, reconcileNode(obj))
	}
	return out
}

func reconcileNode(m map[string]any) types.RegeneratedNode {
	depth, _ := firstInt(m, "depth")
	node := types.RegeneratedNode{
		ID:       firstString(m, nodeIDKeys...),
		Text:     firstString(m, "text"),
		Choices:  reconcileChoices(firstList(m, "choices")),
		Depth:    depth,
		ParentID: firstString(m, parentIDKeys...),
		Details:  reconcileDetails(m),
	}
	if children := firstList(m, "children"); len(children) > 0 {
		node.Children = reconcileNodes(children)
	}
	return node
}

// reconcileDetails prefers a nested "details" object and falls back to the
// flat fields older responses put on the node itself.
func reconcileDetails(node map[string]any) *types.NodeDetails {
	src := node
	if nested := firstMap(node, "details"); nested != nil {
		src = nested
	}
	d := &types.NodeDetails{
		Situation:   firstString(src, "situation"),
		NPCEmotions: stringMap(mustFirst(src, npcEmotionsKeys...)),
		Tags:        stringSlice(mustFirst(src, "tags")),
	}
	if d.Situation == "" && d.NPCEmotions == nil && d.Tags == nil {
		return nil
	}
	return d
}

// reconcileChoices accepts either a list of objects or a list of plain strings.
func reconcileChoices(list []any) []types.Choice {
	out := make([]types.Choice, 0, len(list))
	for _, item := range list {
		switch c := item.(type) {
		case string:
			out = append(out, types.Choice{Text: c})
		case map[string]any:
			out = append(out, types.Choice{
				Text:              firstString(c, "text"),
				Tags:              stringSlice(mustFirst(c, "tags")),
				ImmediateReaction: firstString(c, immediateKeys...),
			})
		}
	}
	return out
}

func countNodes(nodes []types.RegeneratedNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Children)
	}
	return n
}

func mustFirst(m map[string]any, keys ...string) any {
	v, _ := first(m, keys...)
	return v
}

func reconcileSources(list []any) []types.RAGSource {
	out := make([]types.RAGSource, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		src := types.RAGSource{
			Text:       firstString(obj, "text"),
			SourceType: firstString(obj, sourceTypeKeys...),
		}
		if score, ok := firstFloat(obj, "score"); ok {
			src.Score = &score
		}
		out = append(out, src)
	}
	return out
}

func reconcileMusic(raw map[string]any) *types.MusicResponse {
	analysis := firstMap(raw, "analysis")
	music := firstMap(raw, "music")
	if music == nil {
		return nil
	}
	resp := &types.MusicResponse{
		Music: types.MusicTrack{
			Mood:         firstString(music, "mood"),
			Filename:     firstString(music, "filename"),
			FilePath:     firstString(music, filePathKeys...),
			StreamingURL: firstString(music, streamingURLKeys...),
		},
	}
	if analysis != nil {
		intensity, _ := firstFloat(analysis, "intensity")
		resp.Analysis = types.MusicAnalysis{
			PrimaryMood:   firstString(analysis, primaryMoodKeys...),
			SecondaryMood: firstString(analysis, secondaryMoodKeys...),
			Intensity:     intensity,
			EmotionalTags: stringSlice(mustFirst(analysis, emotionalTagsKeys...)),
			Reasoning:     firstString(analysis, "reasoning"),
		}
	}
	if resp.Music.Filename == "" {
		return nil
	}
	return resp
}

// sortedKeys returns map keys in lexical order for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
