package mq

// Stage names the upstream step a StageError came from.
type Stage int

const (
	StageParse Stage = iota
	StageEvaluate
	StageConvert
)

func (s Stage) prefix() string {
	switch s {
	case StageParse:
		return "Error parsing input: "
	case StageEvaluate:
		return "Error evaluating query: "
	case StageConvert:
		return "Error converting HTML to Markdown: "
	}
	return "Error: "
}

// StageError wraps a failure from a parser, the engine or the HTML converter.
// Its message is the stage prefix followed by the underlying message.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.prefix() + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageEvaluate:
		return "evaluate"
	case StageConvert:
		return "convert"
	}
	return "unknown"
}
