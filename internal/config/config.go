package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Services  ServicesConfig  `yaml:"services"`
	CORS      CORSConfig      `yaml:"cors"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Policy    PolicyConfig    `yaml:"policy"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

// AuthConfig holds the shared HMAC secret used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ServicesConfig struct {
	Analysis ServiceConfig `yaml:"analysis"`
	Image    ServiceConfig `yaml:"image"`
	Chat     ServiceConfig `yaml:"chat"`
	Music    ServiceConfig `yaml:"music"`
}

// All returns the descriptors in a stable order.
func (s ServicesConfig) All() []ServiceConfig {
	return []ServiceConfig{s.Analysis, s.Image, s.Chat, s.Music}
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

type PolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8081,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     11 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     10 << 20,
		},
		Services: ServicesConfig{
			Analysis: ServiceConfig{
				Name:           "Analysis",
				BaseURL:        "http://localhost:8000",
				ConnectTimeout: 10 * time.Second,
				ProbeTimeout:   5 * time.Second,
				MaxIdleConns:   20,
				Timeouts: map[string]time.Duration{
					OpAnalyze:             3 * time.Minute,
					OpAnalyzeFromS3:       3 * time.Minute,
					OpFinalizeAnalysis:    3 * time.Minute,
					OpGenerate:            10 * time.Minute,
					OpGenerateNextEpisode: 10 * time.Minute,
					OpRegenerateSubtree:   5 * time.Minute,
				},
			},
			Image: ServiceConfig{
				Name:           "Image",
				BaseURL:        "http://localhost:8002",
				ConnectTimeout: 10 * time.Second,
				ProbeTimeout:   5 * time.Second,
				MaxIdleConns:   20,
				Timeouts: map[string]time.Duration{
					OpGenerateImage: 30 * time.Second,
					OpLearnStyle:    30 * time.Second,
				},
			},
			Chat: ServiceConfig{
				Name:           "Chat",
				BaseURL:        "http://localhost:8001",
				ConnectTimeout: 10 * time.Second,
				ProbeTimeout:   5 * time.Second,
				MaxIdleConns:   20,
				Timeouts: map[string]time.Duration{
					OpIndexCharacter: 30 * time.Second,
					OpSetCharacter:   30 * time.Second,
					OpSendMessage:    30 * time.Second,
					OpUpdateProgress: 30 * time.Second,
					OpIndexNovel:     30 * time.Second,
				},
			},
			Music: ServiceConfig{
				Name:           "Music",
				BaseURL:        "http://localhost:8003",
				ConnectTimeout: 10 * time.Second,
				ProbeTimeout:   5 * time.Second,
				MaxIdleConns:   10,
				Timeouts: map[string]time.Duration{
					OpRecommendMusic: 10 * time.Second,
				},
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
			MaxAge:         300,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 50,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 120,
		},
		Policy: PolicyConfig{
			Enabled:           false,
			BundlePath:        "configs/policies",
			EvaluationTimeout: 100 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
	}
}
