package gateway

import (
	"net/http"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skRookies2team/Backend-Relay/internal/auth"
	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

const opHealth = "health"

type route struct {
	path    string
	op      string
	handler func(*Handler) http.HandlerFunc
}

// routes lists every authenticated relay operation.
var routes = []route{
	{"/ai/analyze", config.OpAnalyze, func(h *Handler) http.HandlerFunc { return h.Analyze }},
	{"/ai/analyze-from-s3", config.OpAnalyzeFromS3, func(h *Handler) http.HandlerFunc { return h.AnalyzeFromS3 }},
	{"/ai/generate", config.OpGenerate, func(h *Handler) http.HandlerFunc { return h.Generate }},
	{"/ai/generate-next-episode", config.OpGenerateNextEpisode, func(h *Handler) http.HandlerFunc { return h.GenerateNextEpisode }},
	{"/ai/finalize-analysis", config.OpFinalizeAnalysis, func(h *Handler) http.HandlerFunc { return h.FinalizeAnalysis }},
	{"/ai/regenerate-subtree", config.OpRegenerateSubtree, func(h *Handler) http.HandlerFunc { return h.RegenerateSubtree }},
	{"/ai/generate-image", config.OpGenerateImage, func(h *Handler) http.HandlerFunc { return h.GenerateImage }},
	{"/ai/learn-style", config.OpLearnStyle, func(h *Handler) http.HandlerFunc { return h.LearnStyle }},
	{"/ai/chat/index-character", config.OpIndexCharacter, func(h *Handler) http.HandlerFunc { return h.IndexCharacter }},
	{"/ai/chat/set-character", config.OpSetCharacter, func(h *Handler) http.HandlerFunc { return h.SetCharacter }},
	{"/ai/chat/message", config.OpSendMessage, func(h *Handler) http.HandlerFunc { return h.SendMessage }},
	{"/ai/chat/update-progress", config.OpUpdateProgress, func(h *Handler) http.HandlerFunc { return h.UpdateProgress }},
	{"/ai/chat/index-novel", config.OpIndexNovel, func(h *Handler) http.HandlerFunc { return h.IndexNovel }},
	{"/ai/recommend-music", config.OpRecommendMusic, func(h *Handler) http.HandlerFunc { return h.RecommendMusic }},
}

// Origins is the CORS allow list. It can be replaced while serving.
type Origins struct {
	list atomic.Pointer[[]string]
}

func NewOrigins(origins []string) *Origins {
	o := &Origins{}
	o.Set(origins)
	return o
}

func (o *Origins) Set(origins []string) {
	cp := slices.Clone(origins)
	o.list.Store(&cp)
}

func (o *Origins) Allowed(origin string) bool {
	list := *o.list.Load()
	return slices.Contains(list, "*") || slices.Contains(list, origin)
}

// RouterOptions carries the middleware the router installs around handlers.
// Nil RateLimit and Policy are skipped.
type RouterOptions struct {
	Gate      auth.Authenticator
	RateLimit func(http.Handler) http.Handler
	Policy    func(operation string) func(http.Handler) http.Handler
	Origins   *Origins
	CORS      config.CORSConfig
	Metrics   *telemetry.Metrics
}

// NewRouter wires every relay route. Only GET /ai/health is reachable
// without a credential.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	ops := map[string]string{"/ai/health": opHealth}
	for _, rt := range routes {
		ops[rt.path] = rt.op
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(instrument(ops, opts.Metrics))
	r.Use(httputil.Recoverer)
	if opts.Origins != nil {
		r.Use(cors.Handler(cors.Options{
			AllowOriginFunc:  func(_ *http.Request, origin string) bool { return opts.Origins.Allowed(origin) },
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: opts.CORS.AllowCredentials,
			MaxAge:           opts.CORS.MaxAge,
		}))
	}

	r.NotFound(httputil.WriteNotFoundError)
	r.MethodNotAllowed(httputil.WriteMethodNotAllowedError)

	r.Get("/ai/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(opts.Gate))
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		for _, rt := range routes {
			handler := http.Handler(rt.handler(h))
			if opts.Policy != nil {
				handler = opts.Policy(rt.op)(handler)
			}
			r.Method(http.MethodPost, rt.path, handler)
		}
	})

	return r
}

// instrument records one request metric and log line per response.
func instrument(ops map[string]string, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			op, ok := ops[r.URL.Path]
			if !ok {
				op = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			if metrics != nil {
				metrics.RecordRequest(op, strconv.Itoa(status), float64(elapsed.Milliseconds()))
			}
			requestLog(r, op, status, elapsed)
		})
	}
}
