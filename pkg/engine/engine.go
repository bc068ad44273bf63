// Package engine provides the Lisp evaluation engine for horologe.
// It wraps zygomys in a sandboxed environment and produces a MovementGraph
// from a movement script, calling the train solvers and the escapement
// synthesizer as the script's forms are evaluated.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/horologe/pkg/graph"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string

	// Err is the builtin failure behind a runtime error, if any. It lets
	// callers match solver faults with errors.Is.
	Err error
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e EvalError) Unwrap() error { return e.Err }

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation and validation.
type EvalResult struct {
	Graph    *graph.MovementGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for movement scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	log        *slog.Logger
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{log: slog.Default().With("component", "engine")}
}

// WithLogger sets the logger handed to the solvers.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l != nil {
		e.log = l.With("component", "engine")
	}
	return e
}

// Evaluate takes Lisp source code and produces a new MovementGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic, cancellation): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*graph.MovementGraph, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with a caller context. Solver searches stop
// when ctx is cancelled or the evaluation times out.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*graph.MovementGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, EvalTimeout)
	defer cancel()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(ctx, source)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ctx, ch, gen, &e.mu, &e.generation)
}

// Run evaluates source and validates the resulting graph. Validation
// errors are reported as EvalErrors and warnings as EvalWarnings.
func (e *Engine) Run(ctx context.Context, source string) (EvalResult, error) {
	g, evalErrs, err := e.EvaluateContext(ctx, source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Graph: g, Errors: evalErrs}
	if g == nil {
		return res, nil
	}
	vr := graph.ValidateAll(g)
	for _, ve := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, source string) (*graph.MovementGraph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	g := graph.New()
	b := newBuilder(ctx, g, e.log)
	registerBuiltins(env, b)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("evaluation stopped: %w", ctxErr)
		}
		evalErrs := parseZygomysError(err)
		if b.lastErr != nil {
			evalErrs[0].Err = b.lastErr
		}
		return nil, evalErrs, nil
	}

	return g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
