package presentation

import (
	"github.com/zjrosen/afb/internal/sweep"
)

// MakeResultDTO represents one make invocation
type MakeResultDTO struct {
	RunID  string `json:"run_id"`
	Class  string `json:"class"`
	Key    string `json:"key,omitempty"`
	Result any    `json:"result"`
}

// Expand replaces a sweep by the list of its values so it encodes as data.
func Expand(v any) any {
	if values, ok := v.(sweep.Values); ok {
		out := sweep.Collect(values)
		if out == nil {
			return []any{}
		}
		return out
	}
	return v
}
