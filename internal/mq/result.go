package mq

import (
	"encoding/json"
	"strings"
)

// Result is the output of a query: the text of every non-empty top-level value plus
// their newline-joined form. The unfiltered values are not kept.
type Result struct {
	values []string
}

// NewResult renders and filters converted top-level values. Only the top level is
// filtered; empty values nested inside a container are kept.
func NewResult(values []Value) Result {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		out = append(out, v.Text())
	}
	return Result{values: out}
}

// FilteredValues returns the text of every non-empty top-level value, in order.
func (r Result) FilteredValues() []string {
	if r.values == nil {
		return []string{}
	}
	return r.values
}

// Text joins FilteredValues with newlines.
func (r Result) Text() string {
	return strings.Join(r.FilteredValues(), "\n")
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Values []string `json:"values"`
		Text   string   `json:"text"`
	}{
		Values: r.FilteredValues(),
		Text:   r.Text(),
	})
}
