package extract

import "github.com/nerdneilsfield/go-docmark/pkg/ast"

// listBuilder accumulates consecutive paragraphs sharing one numbering
// instance into a list tree. Deeper indent levels open sub-lists attached to
// the last item of the enclosing level; returning to a shallower level closes
// them again. Sibling lists with distinct instance ids never merge, so their
// counters stay independent.
type listBuilder struct {
	numID int
	root  *ast.List
	stack []*ast.List
}

func newListBuilder(numID, depth int, ordered bool) *listBuilder {
	root := &ast.List{Ordered: ordered, Depth: depth}
	return &listBuilder{numID: numID, root: root, stack: []*ast.List{root}}
}

func (b *listBuilder) add(depth int, ordered bool, blocks []ast.Block) {
	for len(b.stack) > 1 && b.top().Depth > depth {
		b.stack = b.stack[:len(b.stack)-1]
	}
	top := b.top()
	if depth > top.Depth {
		sub := &ast.List{Ordered: ordered, Depth: depth}
		if len(top.Items) == 0 {
			top.Items = append(top.Items, ast.ListItem{})
		}
		parent := &top.Items[len(top.Items)-1]
		parent.Blocks = append(parent.Blocks, sub)
		b.stack = append(b.stack, sub)
		top = sub
	}
	top.Items = append(top.Items, ast.ListItem{Blocks: blocks})
}

func (b *listBuilder) top() *ast.List {
	return b.stack[len(b.stack)-1]
}
