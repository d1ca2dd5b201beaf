package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

const (
	// FallbackChatMessage is served when the chat backend cannot answer.
	FallbackChatMessage = "죄송합니다. 지금은 대화가 어렵습니다. 잠시 후 다시 시도해주세요."
	// DefaultCharacterName is used when no name is given or derivable.
	DefaultCharacterName = "캐릭터"

	characterIDPrefix = "story_"
)

// Status values the chat backend returns on success.
const (
	statusCharacterSet = "character_set"
	statusUpdated      = "updated"
	statusTrained      = "trained"
)

// ChatClient talks to the retrieval-augmented character chat backend.
//
// Indexing operations return false when the backend answers with a different
// status, and fail with a *DownstreamError when it cannot be reached.
type ChatClient struct {
	base
	now     func() time.Time
	index   Policy[*types.CharacterIndexRequest, bool]
	set     Policy[*types.CharacterSetRequest, bool]
	message Policy[*types.ChatMessageRequest, *types.ChatMessageResponse]
	update  Policy[*types.GameProgressUpdateRequest, bool]
	novel   Policy[*types.NovelIndexRequest, bool]
}

func NewChatClient(desc config.ServiceConfig, metrics *telemetry.Metrics, logger *slog.Logger) *ChatClient {
	c := &ChatClient{
		base:   newBase(desc, metrics, logger),
		now:    time.Now,
		index:  failFast[*types.CharacterIndexRequest, bool](),
		set:    failFast[*types.CharacterSetRequest, bool](),
		update: failFast[*types.GameProgressUpdateRequest, bool](),
		novel:  failFast[*types.NovelIndexRequest, bool](),
	}
	c.message = fallbackTo(c.apology)
	return c
}

func (c *ChatClient) Policies() map[string]Mode {
	return map[string]Mode{
		config.OpIndexCharacter: c.index.Mode,
		config.OpSetCharacter:   c.set.Mode,
		config.OpSendMessage:    c.message.Mode,
		config.OpUpdateProgress: c.update.Mode,
		config.OpIndexNovel:     c.novel.Mode,
	}
}

type characterBody struct {
	SessionID            string `json:"session_id"`
	CharacterName        string `json:"character_name"`
	CharacterDescription string `json:"character_description"`
}

// IndexCharacter registers a character profile as the persona of a session.
func (c *ChatClient) IndexCharacter(ctx context.Context, req *types.CharacterIndexRequest) (bool, error) {
	op := config.OpIndexCharacter
	return invoke(ctx, &c.base, op, c.index, req, func(ctx context.Context, req *types.CharacterIndexRequest) (bool, error) {
		return c.expectStatus(ctx, op, "/api/ai/character", characterBody{
			SessionID:            req.CharacterID,
			CharacterName:        req.Name,
			CharacterDescription: BuildCharacterDescription(req),
		}, statusCharacterSet)
	})
}

func (c *ChatClient) SetCharacter(ctx context.Context, req *types.CharacterSetRequest) (bool, error) {
	op := config.OpSetCharacter
	return invoke(ctx, &c.base, op, c.set, req, func(ctx context.Context, req *types.CharacterSetRequest) (bool, error) {
		return c.expectStatus(ctx, op, "/api/ai/character", characterBody{
			SessionID:            req.CharacterID,
			CharacterName:        req.CharacterName,
			CharacterDescription: req.CharacterDescription,
		}, statusCharacterSet)
	})
}

func (c *ChatClient) UpdateProgress(ctx context.Context, req *types.GameProgressUpdateRequest) (bool, error) {
	op := config.OpUpdateProgress
	return invoke(ctx, &c.base, op, c.update, req, func(ctx context.Context, req *types.GameProgressUpdateRequest) (bool, error) {
		metadata := req.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		return c.expectStatus(ctx, op, "/api/ai/update", map[string]any{
			"session_id": req.CharacterID,
			"content":    req.Content,
			"metadata":   metadata,
		}, statusUpdated)
	})
}

// IndexNovel trains the session's vector store from a stored novel. The
// character name is left empty; personas are attached later.
func (c *ChatClient) IndexNovel(ctx context.Context, req *types.NovelIndexRequest) (bool, error) {
	op := config.OpIndexNovel
	return invoke(ctx, &c.base, op, c.novel, req, func(ctx context.Context, req *types.NovelIndexRequest) (bool, error) {
		return c.expectStatus(ctx, op, "/api/ai/train-from-s3", map[string]string{
			"session_id":     req.StoryID,
			"file_key":       req.FileKey,
			"bucket":         req.Bucket,
			"character_name": "",
		}, statusTrained)
	})
}

func (c *ChatClient) expectStatus(ctx context.Context, op, path string, body any, want string) (bool, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.postJSON(ctx, op, path, body, &resp); err != nil {
		return false, err
	}
	if resp.Status != want {
		c.logger.WarnContext(ctx, "chat backend rejected request", "operation", op, "status", resp.Status, "want", want)
		return false, nil
	}
	return true, nil
}

type chatBody struct {
	SessionID     string `json:"session_id"`
	CharacterName string `json:"character_name"`
	Message       string `json:"message"`
}

// SendMessage relays one user turn. The story id keys the vector store, so it
// is preferred over the character id as the session.
func (c *ChatClient) SendMessage(ctx context.Context, req *types.ChatMessageRequest) (*types.ChatMessageResponse, error) {
	op := config.OpSendMessage
	return invoke(ctx, &c.base, op, c.message, req, func(ctx context.Context, req *types.ChatMessageRequest) (*types.ChatMessageResponse, error) {
		sessionID := req.StoryID
		if sessionID == "" {
			sessionID = req.CharacterID
		}
		body := chatBody{
			SessionID:     sessionID,
			CharacterName: ResolveCharacterName(req.CharacterName, req.CharacterID),
			Message:       req.UserMessage,
		}

		var raw map[string]any
		if err := c.postJSON(ctx, op, "/api/ai/chat", body, &raw); err != nil {
			return nil, err
		}
		reply := firstString(raw, chatReplyKeys...)
		if reply == "" {
			return nil, ErrEmptyResponse
		}
		return &types.ChatMessageResponse{
			CharacterID: req.CharacterID,
			AIMessage:   reply,
			Sources:     reconcileSources(firstList(raw, "sources")),
			Timestamp:   c.now().UTC().Format(time.RFC3339Nano),
		}, nil
	})
}

func (c *ChatClient) apology(req *types.ChatMessageRequest) *types.ChatMessageResponse {
	return &types.ChatMessageResponse{
		CharacterID: req.CharacterID,
		AIMessage:   FallbackChatMessage,
		Sources:     []types.RAGSource{},
		Timestamp:   c.now().UTC().Format(time.RFC3339Nano),
		Degraded:    true,
	}
}

// ResolveCharacterName returns name when set. Otherwise it derives the name
// from identifiers shaped story_<hash>_<name>, where <name> may itself contain
// underscores, and falls back to DefaultCharacterName. Trailing delimiters
// are ignored, so story_<hash>__ has no name.
func ResolveCharacterName(name, characterID string) string {
	if name != "" {
		return name
	}
	if strings.HasPrefix(characterID, characterIDPrefix) {
		parts := strings.Split(characterID, "_")
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		if len(parts) >= 3 {
			if derived := strings.Join(parts[2:], "_"); derived != "" {
				return derived
			}
		}
	}
	return DefaultCharacterName
}

// BuildCharacterDescription renders a profile as the sectioned text the chat
// backend uses as its persona prompt. Map sections are sorted by key.
func BuildCharacterDescription(req *types.CharacterIndexRequest) string {
	var sb strings.Builder

	section := func(title, body string) {
		if body != "" {
			sb.WriteString(title + ":\n" + body + "\n\n")
		}
	}
	section("설명", req.Description)
	section("성격", req.Personality)
	section("배경 스토리", req.Background)

	if len(req.DialogueSamples) > 0 {
		sb.WriteString("대화 샘플:\n")
		for _, line := range req.DialogueSamples {
			sb.WriteString("- " + line + "\n")
		}
		sb.WriteString("\n")
	}

	if len(req.Relationships) > 0 {
		sb.WriteString("관계:\n")
		for _, k := range sortedKeys(req.Relationships) {
			sb.WriteString("- " + k + ": " + req.Relationships[k] + "\n")
		}
		sb.WriteString("\n")
	}

	if len(req.AdditionalInfo) > 0 {
		sb.WriteString("추가 정보:\n")
		for _, k := range sortedKeys(req.AdditionalInfo) {
			sb.WriteString(fmt.Sprintf("- %s: %v\n", k, req.AdditionalInfo[k]))
		}
	}

	return sb.String()
}

// Probe reports up when GET / answers {"status":"running"}.
func (c *ChatClient) Probe(ctx context.Context) bool {
	return c.probeStatus(ctx, "/", "running")
}
