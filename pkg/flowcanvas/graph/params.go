package graph

import (
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/config"
)

// Params is the kind-specific part of a node's configuration.
// The set of implementations is closed; use NewParams to obtain one.
type Params interface {
	// Kind reports which node kind the params belong to.
	Kind() Kind

	merge(c config.Config) Params
	fields() map[string]any
}

// paramKeys lists the patch keys each variant consumes.
var paramKeys = map[Kind][]string{
	KindUpload:   {"filename"},
	KindScript:   {"script"},
	KindAI:       {"prompt"},
	KindAnalysis: {"question"},
	KindCloud:    {"functionName"},
	KindNLP:      {"text"},
	KindDB:       {"operation", "table"},
	KindEditable: {"content"},
}

// NewParams returns the zero params for kind.
func NewParams(kind Kind) Params {
	switch kind {
	case KindStart:
		return StartParams{}
	case KindUpload:
		return UploadParams{}
	case KindScript:
		return ScriptParams{}
	case KindAI:
		return AIParams{}
	case KindAnalysis:
		return AnalysisParams{}
	case KindCheck:
		return CheckParams{}
	case KindCloud:
		return CloudParams{}
	case KindNLP:
		return NLPParams{}
	case KindDB:
		return DBParams{}
	case KindEditable:
		return EditableParams{}
	default:
		return GenericParams{}
	}
}

func isParamKey(kind Kind, key string) bool {
	for _, k := range paramKeys[kind] {
		if k == key {
			return true
		}
	}
	return false
}

func putNonEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// StartParams has no fields.
type StartParams struct{}

func (StartParams) Kind() Kind                   { return KindStart }
func (p StartParams) merge(config.Config) Params { return p }
func (StartParams) fields() map[string]any       { return nil }

// UploadParams records the name of the last uploaded file.
type UploadParams struct {
	Filename string
}

func (UploadParams) Kind() Kind { return KindUpload }

func (p UploadParams) merge(c config.Config) Params {
	p.Filename = c.Text("filename", p.Filename)
	return p
}

func (p UploadParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "filename", p.Filename)
	return m
}

// Script names understood by script nodes.
const (
	ScriptCheckCSVPresent = "check_csv_present"
	ScriptRegenModel      = "regen_model"
)

// ScriptParams selects a script. The runner currently ignores it.
type ScriptParams struct {
	Script string
}

func (ScriptParams) Kind() Kind { return KindScript }

// ScriptOrDefault returns Script or ScriptCheckCSVPresent when unset.
func (p ScriptParams) ScriptOrDefault() string {
	if p.Script == "" {
		return ScriptCheckCSVPresent
	}
	return p.Script
}

func (p ScriptParams) merge(c config.Config) Params {
	p.Script = c.Text("script", p.Script)
	return p
}

func (p ScriptParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "script", p.Script)
	return m
}

// DefaultPrompt is sent by ai nodes with no prompt configured.
const DefaultPrompt = "Hello model"

// AIParams holds the prompt for the chat endpoint.
type AIParams struct {
	Prompt string
}

func (AIParams) Kind() Kind { return KindAI }

// PromptOrDefault returns Prompt or DefaultPrompt when empty.
func (p AIParams) PromptOrDefault() string {
	if p.Prompt == "" {
		return DefaultPrompt
	}
	return p.Prompt
}

func (p AIParams) merge(c config.Config) Params {
	p.Prompt = c.Text("prompt", p.Prompt)
	return p
}

func (p AIParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "prompt", p.Prompt)
	return m
}

// AnalysisParams holds the free-text question for the "question" operation.
type AnalysisParams struct {
	Question string
}

func (AnalysisParams) Kind() Kind { return KindAnalysis }

func (p AnalysisParams) merge(c config.Config) Params {
	p.Question = c.Text("question", p.Question)
	return p
}

func (p AnalysisParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "question", p.Question)
	return m
}

// CheckParams has no fields.
type CheckParams struct{}

func (CheckParams) Kind() Kind                   { return KindCheck }
func (p CheckParams) merge(config.Config) Params { return p }
func (CheckParams) fields() map[string]any       { return nil }

// CloudParams names a cloud function to trigger.
type CloudParams struct {
	FunctionName string
}

func (CloudParams) Kind() Kind { return KindCloud }

func (p CloudParams) merge(c config.Config) Params {
	p.FunctionName = c.Text("functionName", p.FunctionName)
	return p
}

func (p CloudParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "functionName", p.FunctionName)
	return m
}

// NLPParams holds the text to process.
type NLPParams struct {
	Text string
}

func (NLPParams) Kind() Kind { return KindNLP }

func (p NLPParams) merge(c config.Config) Params {
	p.Text = c.Text("text", p.Text)
	return p
}

func (p NLPParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "text", p.Text)
	return m
}

// Database operations offered by db nodes.
const (
	DBRead   = "read"
	DBWrite  = "write"
	DBUpdate = "update"
	DBDelete = "delete"
)

// DBParams selects a database operation and target table.
type DBParams struct {
	Operation string
	Table     string
}

func (DBParams) Kind() Kind { return KindDB }

// OperationOrDefault returns Operation or DBRead when unset.
func (p DBParams) OperationOrDefault() string {
	if p.Operation == "" {
		return DBRead
	}
	return p.Operation
}

func (p DBParams) merge(c config.Config) Params {
	p.Operation = c.Text("operation", p.Operation)
	p.Table = c.Text("table", p.Table)
	return p
}

func (p DBParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "operation", p.Operation)
	putNonEmpty(m, "table", p.Table)
	return m
}

// EditableParams holds free-form note content.
type EditableParams struct {
	Content string
}

func (EditableParams) Kind() Kind { return KindEditable }

func (p EditableParams) merge(c config.Config) Params {
	p.Content = c.Text("content", p.Content)
	return p
}

func (p EditableParams) fields() map[string]any {
	m := map[string]any{}
	putNonEmpty(m, "content", p.Content)
	return m
}

// GenericParams has no fields.
type GenericParams struct{}

func (GenericParams) Kind() Kind                   { return KindGeneric }
func (p GenericParams) merge(config.Config) Params { return p }
func (GenericParams) fields() map[string]any       { return nil }
