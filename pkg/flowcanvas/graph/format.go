package graph

import (
	"encoding/json"
	"fmt"
)

// FormatResult renders a run result for the output box: strings verbatim,
// nil as empty, anything else as indented JSON.
func FormatResult(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
