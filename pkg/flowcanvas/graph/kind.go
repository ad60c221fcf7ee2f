package graph

// Kind identifies which runner executes a node.
type Kind string

// Node kinds. Anything unrecognized is treated as KindGeneric.
const (
	KindStart    Kind = "start"
	KindUpload   Kind = "upload"
	KindScript   Kind = "script"
	KindAI       Kind = "ai"
	KindAnalysis Kind = "analysis"
	KindCheck    Kind = "check"
	KindCloud    Kind = "cloud"
	KindNLP      Kind = "nlp"
	KindDB       Kind = "db"
	KindEditable Kind = "editable"
	KindGeneric  Kind = "generic"
)

// Kinds lists every kind in toolbar order, generic last.
var Kinds = []Kind{
	KindStart, KindUpload, KindScript, KindAI, KindAnalysis, KindCheck,
	KindCloud, KindNLP, KindDB, KindEditable, KindGeneric,
}

// ParseKind maps s to a Kind, defaulting to KindGeneric.
func ParseKind(s string) Kind {
	for _, k := range Kinds {
		if string(k) == s {
			return k
		}
	}
	return KindGeneric
}

// Status is the execution state of a node.
type Status string

// Node statuses. Only the engine moves a node out of StatusIdle.
const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Terminal reports whether s is success or error.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}
