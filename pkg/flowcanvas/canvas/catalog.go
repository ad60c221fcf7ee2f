package canvas

import (
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/registry"
)

// DragMIME is the drag payload type carrying a ToolbarItem as JSON.
const DragMIME = "application/reactflow"

// ToolbarItem is a node template offered by the toolbar and carried by
// drag-and-drop.
type ToolbarItem struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Kind  string `json:"kind"`
}

// Catalog is the ordered set of toolbar items, keyed by kind.
type Catalog struct {
	items *registry.Registry[graph.Kind, ToolbarItem]
}

// NewCatalog returns a catalog holding items in the given order. A later
// item with the same kind replaces the earlier one in place.
func NewCatalog(items ...ToolbarItem) *Catalog {
	c := &Catalog{items: registry.New[graph.Kind, ToolbarItem]()}
	for _, it := range items {
		c.items.Register(graph.ParseKind(it.Kind), it)
	}
	return c
}

// DefaultCatalog returns the ten standard toolbar items.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		ToolbarItem{Label: "Start", Icon: "▶️", Kind: string(graph.KindStart)},
		ToolbarItem{Label: "Upload File", Icon: "📂", Kind: string(graph.KindUpload)},
		ToolbarItem{Label: "Script", Icon: "📜", Kind: string(graph.KindScript)},
		ToolbarItem{Label: "AI Model", Icon: "🤖", Kind: string(graph.KindAI)},
		ToolbarItem{Label: "CSV Analysis", Icon: "📊", Kind: string(graph.KindAnalysis)},
		ToolbarItem{Label: "Checks", Icon: "✅", Kind: string(graph.KindCheck)},
		ToolbarItem{Label: "Cloud Function", Icon: "☁️", Kind: string(graph.KindCloud)},
		ToolbarItem{Label: "NLP", Icon: "🧠", Kind: string(graph.KindNLP)},
		ToolbarItem{Label: "Database", Icon: "🗄️", Kind: string(graph.KindDB)},
		ToolbarItem{Label: "Editable", Icon: "📝", Kind: string(graph.KindEditable)},
	)
}

// Items returns the catalog in order.
func (c *Catalog) Items() []ToolbarItem {
	return c.items.Values()
}

// Lookup returns the item for kind.
func (c *Catalog) Lookup(kind graph.Kind) (ToolbarItem, bool) {
	return c.items.Get(kind)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return c.items.Len()
}
