package backend

import (
	"context"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

// Mode decides what an operation does when its downstream call fails.
type Mode int

const (
	// FailFast surfaces a *DownstreamError.
	FailFast Mode = iota
	// Fallback returns a substitute value and no error.
	Fallback
)

func (m Mode) String() string {
	switch m {
	case FailFast:
		return "fail-fast"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Policy is the failure policy of one operation.
type Policy[Req, Resp any] struct {
	Mode     Mode
	fallback func(Req) Resp
}

func failFast[Req, Resp any]() Policy[Req, Resp] {
	return Policy[Req, Resp]{Mode: FailFast}
}

func fallbackTo[Req, Resp any](fn func(Req) Resp) Policy[Req, Resp] {
	return Policy[Req, Resp]{Mode: Fallback, fallback: fn}
}

// invoke runs one downstream call and applies the operation's policy to its
// failure. It is the only place where fallback values replace errors.
func invoke[Req, Resp any](ctx context.Context, b *base, op string, p Policy[Req, Resp], req Req,
	call func(context.Context, Req) (Resp, error)) (Resp, error) {

	start := time.Now()
	resp, err := call(ctx, req)
	if err == nil {
		b.record(op, telemetry.OutcomeSuccess, start)
		return resp, nil
	}

	if p.Mode == Fallback && p.fallback != nil {
		b.record(op, telemetry.OutcomeFallback, start)
		b.logger.WarnContext(ctx, "downstream call failed, serving fallback",
			"operation", op,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return p.fallback(req), nil
	}

	b.record(op, telemetry.OutcomeFailure, start)
	b.logger.ErrorContext(ctx, "downstream call failed",
		"operation", op,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	var zero Resp
	return zero, &DownstreamError{Service: b.desc.Name, Operation: op, Err: err}
}
