// Package engine provides the Lisp evaluation host for the ray tracing
// surface. It wraps zygomys in a sandboxed environment; scripts drive a
// session through the rt-* builtins, and every failure inside a builtin
// degrades to nil plus a diagnostic log line rather than a script error.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/prismrt/prism/pkg/session"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// TraceDefaults sizes trace dispatches that scripts leave unsized.
type TraceDefaults struct {
	Width  uint32
	Height uint32
}

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter around one ray tracing session.
// Each call to Evaluate creates a fresh sandboxed environment; resources
// created by a script live on in the session until destroyed or the
// session is closed.
type Engine struct {
	sess     *session.Session
	log      *log.Logger
	defaults TraceDefaults

	mu         sync.Mutex
	generation uint64
}

// New creates an Engine bound to sess. A nil logger falls back to the
// default.
func New(sess *session.Session, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{sess: sess, log: logger}
}

// SetTraceDefaults installs fallback dimensions for rt-trace-rays calls
// that omit :width or :height.
func (e *Engine) SetTraceDefaults(d TraceDefaults) {
	e.defaults = d
}

type evalOutcome struct {
	errors []EvalError
	err    error
}

// Evaluate runs Lisp source against the engine's session.
//
// Return semantics:
//   - On success: nil errors + nil error
//   - On parse/eval failure: eval errors + nil error
//   - On fatal failure (timeout, panic): nil + error
func (e *Engine) Evaluate(source string) ([]EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalOutcome, 1)
	guard := newSessionGuard(e.sess)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalOutcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		evalErrs, err := e.evaluate(source, guard)
		ch <- evalOutcome{errors: evalErrs, err: err}
	}()

	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		// Discard results from evaluations that were superseded while
		// running.
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			guard.revoke()
			return nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.errors, res.err
	case <-timer.C:
		// The interpreter goroutine cannot be stopped; revoking its
		// session access makes everything it does from here on a no-op
		// inside its own discarded environment.
		guard.revoke()
		return nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, guard *sessionGuard) ([]EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and
	// syscalls; only the registered builtins reach the session.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, guard, e.log, e.defaults)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return parseScriptError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return parseScriptError(err), nil
	}
	return nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseScriptError converts a zygomys error into EvalError values,
// extracting line numbers where the message carries them.
func parseScriptError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
