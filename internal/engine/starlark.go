package engine

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Config configures a StarlarkEngine.
type Config struct {
	// MaxExecutionSteps bounds the work of one Eval call across all inputs. Zero means unlimited.
	MaxExecutionSteps uint64
	Logger            *logrus.Logger
}

// StarlarkEngine evaluates a query as a Starlark expression, once per input value,
// with the input bound to self.
type StarlarkEngine struct {
	maxSteps uint64
	logger   *logrus.Logger
	globals  starlark.StringDict
}

// NewStarlarkEngine creates an engine with the Predeclared globals.
func NewStarlarkEngine(cfg Config) *StarlarkEngine {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	globals := Predeclared()
	globals.Freeze()
	return &StarlarkEngine{
		maxSteps: cfg.MaxExecutionSteps,
		logger:   logger,
		globals:  globals,
	}
}

// Eval implements Engine. It returns one value per input, in input order.
func (e *StarlarkEngine) Eval(ctx context.Context, code string, input []Value) ([]Value, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &EvalError{Message: "query is empty"}
	}
	if _, err := fileOptions.ParseExpr("query", code, 0); err != nil {
		return nil, &EvalError{Message: err.Error()}
	}

	thread := e.newThread()
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	env := make(starlark.StringDict, len(e.globals)+1)
	for k, v := range e.globals {
		env[k] = v
	}

	out := make([]Value, 0, len(input))
	for i, in := range input {
		if err := ctx.Err(); err != nil {
			return nil, &EvalError{Index: i, Message: err.Error()}
		}

		env["self"] = toStarlark(in)
		result, err := starlark.EvalOptions(fileOptions, thread, "query", code, env)
		if err != nil {
			return nil, &EvalError{Index: i, Message: err.Error()}
		}

		v, err := toValue(result, 0)
		if err != nil {
			return nil, &EvalError{Index: i, Message: err.Error()}
		}
		out = append(out, v)
	}

	e.logger.WithFields(logrus.Fields{
		"inputs": len(input),
		"steps":  thread.ExecutionSteps(),
	}).Debug("Query evaluated")

	return out, nil
}

func (e *StarlarkEngine) newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Name: "mq",
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.WithField("source", "query").Debug(msg)
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}
	return thread
}

// EvalError is a failed query evaluation.
type EvalError struct {
	// Index is the position of the input being evaluated when the error occurred.
	Index   int
	Message string
}

func (e *EvalError) Error() string {
	return e.Message
}
