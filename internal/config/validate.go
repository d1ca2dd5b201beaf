package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// MinSecretBytes is the shortest HMAC secret accepted for HS256.
const MinSecretBytes = 32

// Timeout classes. Every class must finish strictly before the next one
// starts: probe < indexing < analysis < generation.
var (
	indexingOps   = []string{OpIndexCharacter, OpSetCharacter, OpSendMessage, OpUpdateProgress, OpIndexNovel}
	analysisOps   = []string{OpAnalyze, OpAnalyzeFromS3, OpFinalizeAnalysis}
	generationOps = []string{OpGenerate, OpGenerateNextEpisode, OpRegenerateSubtree}
)

// Validate checks the settings that must hold before the relay starts.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretBytes))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}

	for _, svc := range c.Services.All() {
		if err := svc.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Services.validateOrdering(); err != nil {
		errs = append(errs, err)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_minute must be positive when enabled"))
	}
	if c.Policy.Enabled && c.Policy.BundlePath == "" {
		errs = append(errs, errors.New("policy.bundle_path is required when policy is enabled"))
	}

	return errors.Join(errs...)
}

func (s ServiceConfig) validate() error {
	if s.Name == "" {
		return errors.New("service name is required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service %s: base_url %q must be an absolute http(s) URL", s.Name, s.BaseURL)
	}
	if s.ConnectTimeout <= 0 {
		return fmt.Errorf("service %s: connect_timeout must be positive", s.Name)
	}
	if s.ProbeTimeout <= 0 {
		return fmt.Errorf("service %s: probe_timeout must be positive", s.Name)
	}
	for op, d := range s.Timeouts {
		if d <= 0 {
			return fmt.Errorf("service %s: timeout for %s must be positive", s.Name, op)
		}
	}
	return nil
}

type timeoutClass struct {
	name string
	min  time.Duration
	max  time.Duration
}

func (s ServicesConfig) validateOrdering() error {
	var probeMax time.Duration
	for _, svc := range s.All() {
		probeMax = max(probeMax, svc.ProbeTimeout)
	}

	classes := []timeoutClass{
		{"probe", probeMax, probeMax},
		classOf("indexing", s.Chat, indexingOps),
		classOf("analysis", s.Analysis, analysisOps),
		classOf("generation", s.Analysis, generationOps),
	}

	for i := 1; i < len(classes); i++ {
		prev, cur := classes[i-1], classes[i]
		if cur.min == 0 {
			return fmt.Errorf("no %s timeouts configured", cur.name)
		}
		if prev.max >= cur.min {
			return fmt.Errorf("timeout ordering violated: %s (max %s) must be shorter than %s (min %s)",
				prev.name, prev.max, cur.name, cur.min)
		}
	}
	return nil
}

func classOf(name string, svc ServiceConfig, ops []string) timeoutClass {
	c := timeoutClass{name: name}
	for _, op := range ops {
		d, ok := svc.Timeouts[op]
		if !ok {
			continue
		}
		if c.min == 0 || d < c.min {
			c.min = d
		}
		c.max = max(c.max, d)
	}
	return c
}
