package flowcanvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/registry"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
)

// Result is the outcome of one node run.
type Result struct {
	OK   bool   `json:"ok"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Runner executes one kind of node. A returned error (or a panic) turns
// into a failed Result carrying the error text.
type Runner func(ctx Context) (Result, error)

// Runner messages.
const (
	MsgStart        = "Start"
	MsgNoFile       = "No file selected."
	MsgCSVPresent   = "CSV present."
	MsgCSVNotLoaded = "CSV not loaded."
	MsgAIReply      = "AI reply received."
	MsgAnswered     = "Answered (demo)."
	MsgPlaceholder  = "......."
	MsgNodeNotFound = "Node not found."
	MsgError        = "Error"

	// MsgStockAdvisory is reported by the script runner when no CSV is
	// loaded and by the ai runner when it falls back to the mock reply.
	MsgStockAdvisory = "Metal frame stock status: we currently have a decent quantity in storage, assorted sizes available. Please verify the latest count before dispatching. \nRequesting for approval"
)

// Analysis operations.
const (
	OpRowCount    = "row_count"
	OpUniqueUsers = "unique_users"
	OpQuestion    = "question"
)

// Column candidates, first present wins.
var (
	userColumns    = []string{"user", "username", "email", "id"}
	managerColumns = []string{"manager", "manager_id", "manager_email", "managerName", "managerId"}
)

// DefaultRunners returns the built-in runner table. Kinds without an
// entry use PlaceholderRunner.
func DefaultRunners() *registry.Registry[graph.Kind, Runner] {
	r := registry.New[graph.Kind, Runner]()
	r.Register(graph.KindStart, StartRunner)
	r.Register(graph.KindUpload, UploadRunner)
	r.Register(graph.KindScript, ScriptRunner)
	r.Register(graph.KindAI, AIRunner)
	r.Register(graph.KindAnalysis, AnalysisRunner)
	r.Register(graph.KindCheck, CheckRunner)
	return r
}

// StartRunner always succeeds.
func StartRunner(Context) (Result, error) {
	return Result{OK: true, Msg: MsgStart}, nil
}

// PlaceholderRunner succeeds without doing anything. It serves cloud, nlp,
// db, editable, generic and any unknown kind.
func PlaceholderRunner(Context) (Result, error) {
	return Result{OK: true, Msg: MsgPlaceholder}, nil
}

// UploadRunner succeeds once the upload handler has recorded a filename.
// The data is the CSV metadata, or nil when no file has been parsed.
func UploadRunner(ctx Context) (Result, error) {
	p, _ := ctx.Node().Config.Params.(graph.UploadParams)
	if p.Filename == "" {
		return Result{OK: false, Msg: MsgNoFile}, nil
	}
	res := Result{OK: true, Msg: "File ready: " + p.Filename}
	if meta, ok := ctx.Runtime().CSVMeta(); ok {
		res.Data = meta
	}
	return res, nil
}

// ScriptRunner checks that a CSV with at least one row is loaded. The
// configured script name is not consulted.
func ScriptRunner(ctx Context) (Result, error) {
	n := ctx.Runtime().Rows()
	if n == 0 {
		return Result{OK: false, Msg: MsgStockAdvisory}, nil
	}
	return Result{OK: true, Msg: MsgCSVPresent, Data: map[string]any{"rows": n}}, nil
}

// AIRunner sends the node prompt to the chat client. Any failure falls
// back to chat.MockReply and is still reported as ok.
func AIRunner(ctx Context) (Result, error) {
	p, _ := ctx.Node().Config.Params.(graph.AIParams)
	prompt := p.PromptOrDefault()

	if client := ctx.Chat(); client != nil {
		reply, err := client.Reply(ctx, prompt)
		if err == nil {
			ctx.Runtime().SetLastAI(reply)
			return Result{OK: true, Msg: MsgAIReply, Data: reply}, nil
		}
		ctx.Logger().Debug("chat failed, using mock reply", "error", err)
	}

	mock := chat.MockReply(prompt)
	ctx.Runtime().SetLastAI(mock)
	return Result{OK: true, Msg: MsgStockAdvisory, Data: mock}, nil
}

// AnalysisRunner runs the operation given by ctx.Op, row_count by default.
func AnalysisRunner(ctx Context) (Result, error) {
	rt := ctx.Runtime()
	table := rt.CSV()
	if table.Len() == 0 {
		return Result{OK: false, Msg: MsgCSVNotLoaded}, nil
	}

	op := ctx.Op()
	if op == "" {
		op = OpRowCount
	}

	switch op {
	case OpRowCount:
		a := runtime.Analysis{Type: "row_count", Value: table.Len()}
		rt.SetLastAnalysis(a)
		return Result{OK: true, Msg: fmt.Sprintf("Rows: %d", table.Len()), Data: a}, nil

	case OpUniqueUsers:
		key, label := uniqueKey(table.Header, table.Len())
		seen := make(map[string]struct{})
		for _, rec := range table.Records {
			if k, ok := key.(string); ok {
				seen[rec[k]] = struct{}{}
			} else {
				// The fallback key names no column, so every row reads the
				// same missing value.
				seen[""] = struct{}{}
			}
		}
		a := runtime.Analysis{Type: "unique", Key: key, Value: len(seen)}
		rt.SetLastAnalysis(a)
		return Result{OK: true, Msg: fmt.Sprintf("Unique by %s: %d", label, len(seen)), Data: a}, nil

	case OpQuestion:
		return Result{OK: true, Msg: MsgAnswered, Data: runtime.Analysis{Type: "answer", Value: "question"}}, nil

	default:
		return Result{OK: true, Msg: fmt.Sprintf("Analysis %s done.", op)}, nil
	}
}

// uniqueKey picks the column for unique_users. With no user-like column
// the key is the list of row positions "0".."n-1", which matches no column.
func uniqueKey(header []string, rows int) (key any, label string) {
	for _, c := range userColumns {
		if contains(header, c) {
			return c, c
		}
	}
	idx := make([]string, rows)
	for i := range idx {
		idx[i] = strconv.Itoa(i)
	}
	return idx, strings.Join(idx, ",")
}

// CheckRunner counts rows whose manager column is blank, "null" or
// "undefined". With no manager column the count is zero.
func CheckRunner(ctx Context) (Result, error) {
	table := ctx.Runtime().CSV()
	if table.Len() == 0 {
		return Result{OK: false, Msg: MsgCSVNotLoaded}, nil
	}

	n := 0
	for _, col := range managerColumns {
		if !contains(table.Header, col) {
			continue
		}
		for _, rec := range table.Records {
			switch strings.TrimSpace(rec[col]) {
			case "", "null", "undefined":
				n++
			}
		}
		break
	}

	return Result{
		OK:   true,
		Msg:  fmt.Sprintf("Found %d users with no manager.", n),
		Data: map[string]any{"noManager": n},
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
