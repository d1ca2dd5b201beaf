package config

import "time"

// Operation names shared by config keys, clients, metrics and authorization.
const (
	OpAnalyze             = "analyze"
	OpAnalyzeFromS3       = "analyze-from-s3"
	OpGenerate            = "generate"
	OpGenerateNextEpisode = "generate-next-episode"
	OpFinalizeAnalysis    = "finalize-analysis"
	OpRegenerateSubtree   = "regenerate-subtree"

	OpGenerateImage = "generate-image"
	OpLearnStyle    = "learn-style"

	OpIndexCharacter = "index-character"
	OpSetCharacter   = "set-character"
	OpSendMessage    = "send-message"
	OpUpdateProgress = "update-progress"
	OpIndexNovel     = "index-novel"

	OpRecommendMusic = "recommend-music"

	OpProbe = "probe"
)

// ServiceConfig describes one downstream AI service. It is captured once at
// startup and handed to the client by value.
type ServiceConfig struct {
	Name           string                   `yaml:"name"`
	BaseURL        string                   `yaml:"base_url"`
	ConnectTimeout time.Duration            `yaml:"connect_timeout"`
	ProbeTimeout   time.Duration            `yaml:"probe_timeout"`
	MaxIdleConns   int                      `yaml:"max_idle_conns"`
	Timeouts       map[string]time.Duration `yaml:"timeouts"`
}

// Timeout returns the wait bound for op. Unknown operations get the probe
// timeout so that nothing is ever unbounded.
func (s ServiceConfig) Timeout(op string) time.Duration {
	if op == OpProbe {
		return s.ProbeTimeout
	}
	if d, ok := s.Timeouts[op]; ok && d > 0 {
		return d
	}
	return s.ProbeTimeout
}

// Clone returns a copy whose timeout map is not shared with the receiver.
func (s ServiceConfig) Clone() ServiceConfig {
	out := s
	out.Timeouts = make(map[string]time.Duration, len(s.Timeouts))
	for k, v := range s.Timeouts {
		out.Timeouts[k] = v
	}
	return out
}
