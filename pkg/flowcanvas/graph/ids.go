package graph

import (
	"strconv"
	"sync/atomic"
)

// IDGen hands out prefixed, strictly increasing ids. Ids are never reused,
// including after the referenced node is deleted or an undo removes it.
type IDGen struct {
	prefix string
	next   atomic.Int64
}

// NewIDGen returns a generator producing prefix_1, prefix_2, ...
func NewIDGen(prefix string) *IDGen {
	return &IDGen{prefix: prefix}
}

// Next returns the next id.
func (g *IDGen) Next() string {
	return g.prefix + "_" + strconv.FormatInt(g.next.Add(1), 10)
}
