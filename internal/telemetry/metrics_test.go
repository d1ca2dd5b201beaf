package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestNewMetricsWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	if m.RequestTotal == nil || m.DownstreamTotal == nil || m.ProbeUp == nil {
		t.Fatal("metrics should be initialised")
	}

	// A second set on another registry must not collide.
	NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestRecordRequest(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordRequest("generate", "502", 1200)

	counter, err := m.RequestTotal.GetMetricWithLabelValues("generate", "502")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("expected request count 1, got %v", v)
	}
}

func TestRecordDownstream_FallbackCounted(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordDownstream("Image", "generate-image", OutcomeFallback, 30000)
	m.RecordDownstream("Image", "generate-image", OutcomeSuccess, 800)

	fb, _ := m.FallbackTotal.GetMetricWithLabelValues("Image", "generate-image")
	if v := counterValue(t, fb); v != 1 {
		t.Errorf("expected 1 fallback, got %v", v)
	}
	ok, _ := m.DownstreamTotal.GetMetricWithLabelValues("Image", "generate-image", OutcomeSuccess)
	if v := counterValue(t, ok); v != 1 {
		t.Errorf("expected 1 success, got %v", v)
	}
}

func TestRecordProbe(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordProbe("Chat", true)
	m.RecordProbe("Music", false)

	var metric dto.Metric
	g, _ := m.ProbeUp.GetMetricWithLabelValues("Chat")
	g.Write(&metric)
	if metric.GetGauge().GetValue() != 1 {
		t.Errorf("Chat probe gauge = %v, want 1", metric.GetGauge().GetValue())
	}
	g, _ = m.ProbeUp.GetMetricWithLabelValues("Music")
	g.Write(&metric)
	if metric.GetGauge().GetValue() != 0 {
		t.Errorf("Music probe gauge = %v, want 0", metric.GetGauge().GetValue())
	}
}

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(ParseLevel("warn"))
	logger := NewLogger(&buf, "json", level)

	logger.Info("hidden")
	logger.Warn("shown", "service", "Analysis")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if rec["service"] != "Analysis" {
		t.Errorf("service attr = %v", rec["service"])
	}

	level.Set(slog.LevelDebug)
	buf.Reset()
	logger.Debug("now visible")
	if buf.Len() == 0 {
		t.Error("level change should apply without rebuilding the logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
