// Package mq runs queries over markdown-like content and converts HTML to markdown.
//
// It is the marshaling layer between a loosely typed caller and the query engine:
// options are soft-decoded, content is dispatched to a parser by format, and the
// engine's values are flattened into a Result.
package mq

import (
	"context"

	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/htmlconv"
	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/sirupsen/logrus"
)

// HTMLConverter converts an HTML document to markdown text.
type HTMLConverter interface {
	Convert(html string, opts htmlconv.Options) (string, error)
}

// Runner ties an engine, the input parsers and an HTML converter together.
type Runner struct {
	engine    engine.Engine
	parsers   InputParser
	converter HTMLConverter
}

// NewRunner creates a Runner from its collaborators.
func NewRunner(eng engine.Engine, parsers InputParser, converter HTMLConverter) *Runner {
	return &Runner{
		engine:    eng,
		parsers:   parsers,
		converter: converter,
	}
}

// NewDefaultRunner creates a Runner backed by the Starlark engine, the goldmark
// parsers and the html-to-markdown converter.
func NewDefaultRunner(maxExecutionSteps uint64, logger *logrus.Logger) *Runner {
	conv := htmlconv.New(logger)
	return NewRunner(
		engine.NewStarlarkEngine(engine.Config{MaxExecutionSteps: maxExecutionSteps, Logger: logger}),
		markdown.NewParser(conv),
		conv,
	)
}

// Run evaluates code over content. rawOptions is a loosely typed options bag; only
// input_format is read from it.
func (r *Runner) Run(ctx context.Context, code, content string, rawOptions any) (Result, error) {
	opts := DecodeOptions(rawOptions)

	input, err := PrepareInput(opts.InputFormat, content, r.parsers)
	if err != nil {
		return Result{}, err
	}

	out, err := r.engine.Eval(ctx, code, input)
	if err != nil {
		return Result{}, &StageError{Stage: StageEvaluate, Err: err}
	}

	values := make([]Value, len(out))
	for i, v := range out {
		values[i] = Convert(v)
	}
	return NewResult(values), nil
}

// HTMLToMarkdown converts content using the conversion flags found in rawOptions.
func (r *Runner) HTMLToMarkdown(content string, rawOptions any) (string, error) {
	opts := DecodeConversionOptions(rawOptions)

	md, err := r.converter.Convert(content, opts.converterOptions())
	if err != nil {
		return "", &StageError{Stage: StageConvert, Err: err}
	}
	return md, nil
}
