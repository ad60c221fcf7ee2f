package graph

import (
	"encoding/json"

	"github.com/mohae/deepcopy"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/config"
)

// Reserved config keys written after every run.
const (
	KeyLastMsg    = "lastMsg"
	KeyLastResult = "lastResult"
)

// Output is the latest run outcome shown in a node's output box.
type Output struct {
	Msg    string
	Result any
}

// Config is a node's full configuration: the kind-specific params, the last
// run output (nil until the node first runs), and any extra keys that no
// params variant declares.
type Config struct {
	Params Params
	Output *Output
	Extra  map[string]any
}

// NewConfig returns an empty config for kind.
func NewConfig(kind Kind) Config {
	return Config{Params: NewParams(kind)}
}

// Kind reports the kind of the params variant.
func (c Config) Kind() Kind {
	if c.Params == nil {
		return KindGeneric
	}
	return c.Params.Kind()
}

// Merge shallow-merges patch into a copy of c and returns it.
//
// Keys declared by the params variant update the variant. A nil value
// resets the field, and a value the field cannot hold resets it and is kept
// in Extra instead. lastMsg and lastResult update Output. Every other key
// lands in Extra.
func (c Config) Merge(patch map[string]any) Config {
	out := c.Clone()
	if out.Params == nil {
		out.Params = NewParams(KindGeneric)
	}
	if len(patch) == 0 {
		return out
	}

	p := config.New(patch)
	kind := out.Params.Kind()
	params := make(map[string]any, len(paramKeys[kind]))
	for _, k := range paramKeys[kind] {
		if !p.Has(k) {
			continue
		}
		delete(out.Extra, k)
		if p.Textual(k) {
			params[k] = patch[k]
			continue
		}
		params[k] = ""
		if patch[k] != nil {
			out.setExtra(k, patch[k])
		}
	}
	out.Params = out.Params.merge(config.New(params))

	_, hasMsg := patch[KeyLastMsg]
	_, hasResult := patch[KeyLastResult]
	if hasMsg || hasResult {
		if out.Output == nil {
			out.Output = &Output{}
		}
		if hasMsg {
			out.Output.Msg = p.Text(KeyLastMsg, "")
		}
		if hasResult {
			out.Output.Result = deepcopy.Copy(patch[KeyLastResult])
		}
	}

	for k, v := range patch {
		if k == KeyLastMsg || k == KeyLastResult || isParamKey(kind, k) {
			continue
		}
		out.setExtra(k, v)
	}
	return out
}

func (c *Config) setExtra(key string, v any) {
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}
	c.Extra[key] = deepcopy.Copy(v)
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := Config{Params: c.Params}
	if c.Output != nil {
		out.Output = &Output{Msg: c.Output.Msg, Result: deepcopy.Copy(c.Output.Result)}
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = deepcopy.Copy(v)
		}
	}
	return out
}

// Map renders c as the flat key/value object used on the wire.
func (c Config) Map() map[string]any {
	m := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.Params != nil {
		for k, v := range c.Params.fields() {
			m[k] = v
		}
	}
	if c.Output != nil {
		m[KeyLastMsg] = c.Output.Msg
		m[KeyLastResult] = c.Output.Result
	}
	return m
}

// MarshalJSON encodes the flat wire form.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}
