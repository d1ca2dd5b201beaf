// Package gateway exposes the relay operations over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/backend"
	"github.com/skRookies2team/Backend-Relay/internal/health"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
	"github.com/skRookies2team/Backend-Relay/internal/types"
)

type AnalysisService interface {
	Analyze(ctx context.Context, p types.Payload) (types.Payload, error)
	AnalyzeFromS3(ctx context.Context, p types.Payload) (types.Payload, error)
	Generate(ctx context.Context, p types.Payload) (types.Payload, error)
	GenerateNextEpisode(ctx context.Context, p types.Payload) (types.Payload, error)
	FinalizeAnalysis(ctx context.Context, p types.Payload) (types.Payload, error)
	RegenerateSubtree(ctx context.Context, req *types.SubtreeRegenerationRequest) (*types.SubtreeRegenerationResponse, error)
}

type ImageService interface {
	GenerateImage(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error)
	LearnStyle(ctx context.Context, req *types.StyleLearnRequest) (*types.StyleLearnResponse, error)
}

type ChatService interface {
	IndexCharacter(ctx context.Context, req *types.CharacterIndexRequest) (bool, error)
	SetCharacter(ctx context.Context, req *types.CharacterSetRequest) (bool, error)
	SendMessage(ctx context.Context, req *types.ChatMessageRequest) (*types.ChatMessageResponse, error)
	UpdateProgress(ctx context.Context, req *types.GameProgressUpdateRequest) (bool, error)
	IndexNovel(ctx context.Context, req *types.NovelIndexRequest) (bool, error)
}

type MusicService interface {
	Recommend(ctx context.Context, req *types.MusicRequest) (*types.MusicResponse, error)
}

type HealthChecker interface {
	Check(ctx context.Context) health.Status
}

// Handler holds dependencies for the relay HTTP handlers.
type Handler struct {
	analysis     AnalysisService
	image        ImageService
	chat         ChatService
	music        MusicService
	health       HealthChecker
	maxBodyBytes int64
}

func NewHandler(analysis AnalysisService, image ImageService, chat ChatService, music MusicService, health HealthChecker, maxBodyBytes int64) *Handler {
	return &Handler{
		analysis:     analysis,
		image:        image,
		chat:         chat,
		music:        music,
		health:       health,
		maxBodyBytes: maxBodyBytes,
	}
}

// Health handles GET /ai/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.health.Check(r.Context())
	if down := st.Down(); len(down) > 0 {
		slog.Warn("ai servers down", "request_id", httputil.RequestIDFromContext(r.Context()), "services", down)
	}
	httputil.WriteJSON(w, st)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	relayPayload(h, w, r, h.analysis.Analyze)
}

func (h *Handler) AnalyzeFromS3(w http.ResponseWriter, r *http.Request) {
	relayPayload(h, w, r, h.analysis.AnalyzeFromS3)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	relayPayload(h, w, r, h.analysis.Generate)
}

func (h *Handler) GenerateNextEpisode(w http.ResponseWriter, r *http.Request) {
	relayPayload(h, w, r, h.analysis.GenerateNextEpisode)
}

func (h *Handler) FinalizeAnalysis(w http.ResponseWriter, r *http.Request) {
	relayPayload(h, w, r, h.analysis.FinalizeAnalysis)
}

func (h *Handler) RegenerateSubtree(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.analysis.RegenerateSubtree)
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.image.GenerateImage)
}

func (h *Handler) LearnStyle(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.image.LearnStyle)
}

func (h *Handler) IndexCharacter(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.chat.IndexCharacter)
}

func (h *Handler) SetCharacter(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.chat.SetCharacter)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.chat.SendMessage)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.chat.UpdateProgress)
}

func (h *Handler) IndexNovel(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.chat.IndexNovel)
}

func (h *Handler) RecommendMusic(w http.ResponseWriter, r *http.Request) {
	relay(h, w, r, h.music.Recommend)
}

// validating is satisfied by a pointer to a request type.
type validating[T any] interface {
	*T
	types.Validator
}

// relay decodes and validates a T, then makes exactly one client call. No
// client is called unless validation passes.
func relay[T any, PT validating[T], Resp any](h *Handler, w http.ResponseWriter, r *http.Request, call func(context.Context, PT) (Resp, error)) {
	req := PT(new(T))
	if !h.decode(w, r, req) {
		return
	}
	resp, err := call(r.Context(), req)
	if err != nil {
		writeCallError(w, r, err)
		return
	}
	httputil.WriteJSON(w, resp)
}

func relayPayload(h *Handler, w http.ResponseWriter, r *http.Request, call func(context.Context, types.Payload) (types.Payload, error)) {
	relay(h, w, r, func(ctx context.Context, p *types.Payload) (types.Payload, error) {
		return call(ctx, *p)
	})
}

var errTrailingData = errors.New("unexpected data after JSON value")

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst types.Validator) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()
	err := dec.Decode(dst)
	if err == nil {
		// The body must hold exactly one JSON value.
		if err = dec.Decode(&struct{}{}); err == io.EOF {
			err = nil
		} else if err == nil {
			err = errTrailingData
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "malformed JSON"
		switch {
		case errors.As(err, &tooLarge):
			msg = fmt.Sprintf("must not exceed %d bytes", tooLarge.Limit)
		case errors.Is(err, errTrailingData):
			msg = errTrailingData.Error()
		}
		httputil.WriteValidationError(w, r, map[string]string{"body": msg})
		return false
	}

	if fields := dst.Validate(); len(fields) > 0 {
		slog.Info("request validation failed",
			"request_id", httputil.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"fields", len(fields),
		)
		httputil.WriteValidationError(w, r, fields)
		return false
	}
	return true
}

// writeCallError maps a client failure onto exactly one envelope.
func writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *backend.DownstreamError
	if errors.As(err, &derr) {
		httputil.WriteDownstreamError(w, r, derr.Error())
		return
	}
	slog.Error("unexpected relay failure",
		"request_id", httputil.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	httputil.WriteInternalError(w, r)
}

// requestLog logs one completed request once the route is known.
func requestLog(r *http.Request, op string, status int, elapsed time.Duration) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request completed",
		"request_id", httputil.RequestIDFromContext(r.Context()),
		"operation", op,
		"status_code", status,
		"duration_ms", elapsed.Milliseconds(),
	)
}
