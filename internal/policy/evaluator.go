// Package policy evaluates an optional OPA authorization policy for each
// authenticated relay operation.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Query is the rule every policy bundle must define.
const Query = "data.relay.authz.allow"

const defaultEvaluationTimeout = 100 * time.Millisecond

// Input is the document a policy sees as `input`.
type Input struct {
	Principal Principal `json:"principal"`
	Operation string    `json:"operation"`
	Time      Time      `json:"time"`
}

type Principal struct {
	ID string `json:"id"`
}

type Time struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator holds a compiled policy. It fails closed: with nothing loaded,
// every request is denied.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	timeout  time.Duration
	now      func() time.Time
}

func NewEvaluator(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = defaultEvaluationTimeout
	}
	return &Evaluator{timeout: timeout, now: time.Now}
}

// Load compiles every .rego file in dir.
func (e *Evaluator) Load(dir string) error {
	modules, err := LoadRegoFiles(dir)
	if err != nil {
		return fmt.Errorf("load rego files: %w", err)
	}
	if len(modules) == 0 {
		return fmt.Errorf("no rego files in %s", dir)
	}
	if err := e.LoadFromModules(modules); err != nil {
		return err
	}
	slog.Info("opa policies loaded", "path", dir, "modules", len(modules))
	return nil
}

// LoadFromModules compiles policies from in-memory sources keyed by file name.
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	opts := []func(*rego.Rego){rego.Query(Query)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Allow reports whether principal may run operation.
func (e *Evaluator) Allow(ctx context.Context, principal, operation string) (bool, error) {
	now := e.now().UTC()
	return e.Evaluate(ctx, Input{
		Principal: Principal{ID: principal},
		Operation: operation,
		Time:      Time{Hour: now.Hour(), Day: now.Weekday().String()},
	})
}

func (e *Evaluator) Evaluate(ctx context.Context, input Input) (bool, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		return false, nil
	}

	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, _ := results[0].Expressions[0].Value.(bool)
	return allowed, nil
}
