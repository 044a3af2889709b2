// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// PostOrder returns all nodes reachable from roots with children before parents. Shared
// nodes appear once. The walk is iterative and does not follow parent edges twice
func PostOrder(roots ...*Node) (order []*Node) {
	type frame struct {
		n *Node
		i int
	}
	visited := make(map[int64]bool)
	var stack []frame
	for _, r := range roots {
		if visited[r.id] {
			continue
		}
		visited[r.id] = true
		stack = append(stack, frame{r, 0})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.i < len(top.n.children) {
				c := top.n.children[top.i]
				top.i++
				if !visited[c.id] {
					visited[c.id] = true
					stack = append(stack, frame{c, 0})
				}
				continue
			}
			order = append(order, top.n)
			stack = stack[:len(stack)-1]
		}
	}
	return
}

// PreOrder returns all nodes reachable from roots with parents before children
func PreOrder(roots ...*Node) []*Node {
	order := PostOrder(roots...)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// Count returns the number of distinct nodes reachable from roots
func Count(roots ...*Node) int { return len(PostOrder(roots...)) }

// Memo maps node ids to transformed nodes
type Memo map[int64]*Node

// TransformFunc returns the replacement of n given its already transformed children
type TransformFunc func(n *Node, children []*Node) (*Node, error)

// Transform rebuilds the graph bottom-up calling fn once per distinct node
func Transform(root *Node, fn TransformFunc) (*Node, error) {
	return TransformMemo(root, make(Memo), fn)
}

// TransformMemo is like Transform but reuses memo across calls; e.g. when many roots share
// subgraphs
func TransformMemo(root *Node, memo Memo, fn TransformFunc) (*Node, error) {
	if res, ok := memo[root.id]; ok {
		return res, nil
	}
	for _, n := range PostOrder(root) {
		if _, ok := memo[n.id]; ok {
			continue
		}
		children := make([]*Node, len(n.children))
		for i, c := range n.children {
			children[i] = memo[c.id]
		}
		res, err := fn(n, children)
		if err != nil {
			return nil, err
		}
		memo[n.id] = res
	}
	return memo[root.id], nil
}

// WithChildren returns a node of the same kind and payload with new children. The result is
// validated again. The node itself is returned when no child changed
func (o *Node) WithChildren(children []*Node) (*Node, error) {
	if sameNodes(o.children, children) {
		return o, nil
	}
	if o.kind.Info().Arity >= 0 && len(children) != o.kind.Info().Arity {
		return nil, fmt.Errorf("%w: %v requires %d children; got %d", ErrShapeMismatch, o, o.kind.Info().Arity, len(children))
	}
	switch o.kind {
	case KindAdd, KindSub, KindMul, KindDiv, KindPow:
		return binary(o.kind, children[0], children[1])
	case KindNeg:
		return Neg(children[0]), nil
	case KindAbs:
		return Abs(children[0]), nil
	case KindFunction:
		return Apply(o.fn, children[0]), nil
	case KindGradient:
		return Grad(children[0])
	case KindDivergence:
		return Divergence(children[0])
	case KindBoundaryValue:
		return BoundaryValue(children[0], o.side)
	case KindIntegral:
		return Integral(children[0])
	case KindEdgeAverage:
		return EdgeAverage(children[0])
	case KindConcatenation:
		if o.name == stackName {
			return Stack(children...)
		}
		return Concatenate(children...)
	case KindBroadcast:
		return Broadcast(children[0], o.domain, o.shape.Rows, o.edges)
	case KindMatVec:
		return MatVec(children[0], children[1])
	}
	chk.Panic("sym: cannot rebuild %v", o)
	return nil, nil
}

// Must returns n or panics if err != nil. Used to assemble models and tests
func Must(n *Node, err error) *Node {
	if err != nil {
		chk.Panic("%v", err)
	}
	return n
}

// Names returns the sorted distinct names of nodes of kind k reachable from roots
func Names(k Kind, roots ...*Node) (names []string) {
	seen := make(map[string]bool)
	for _, n := range PostOrder(roots...) {
		if n.kind == k && !seen[n.name] {
			seen[n.name] = true
			names = append(names, n.name)
		}
	}
	sort.Strings(names)
	return
}

// HasKind tells whether a node of a kind in ks is reachable from root
func HasKind(root *Node, ks ...Kind) bool {
	for _, n := range PostOrder(root) {
		for _, k := range ks {
			if n.kind == k {
				return true
			}
		}
	}
	return false
}

// Format returns one line per distinct node in bottom-up order; e.g.
//
//	%3 = add(%1, %2) ?x1 [electrode]
func Format(root *Node) string {
	local := make(map[int64]int)
	var b strings.Builder
	for i, n := range PostOrder(root) {
		local[n.id] = i
		args := make([]string, len(n.children))
		for j, c := range n.children {
			args[j] = io.Sf("%%%d", local[c.id])
		}
		b.WriteString(io.Sf("%%%d = %s", i, n.kind))
		switch n.kind {
		case KindScalar:
			b.WriteString(io.Sf(" %g", n.value))
		case KindFunction:
			b.WriteString(" " + n.fn.Name())
		case KindBoundaryValue:
			b.WriteString(" " + n.side.String())
		case KindStateSlice:
			b.WriteString(io.Sf(" %s[%d:%d]", n.name, n.start, n.End()))
		default:
			if n.name != "" {
				b.WriteString(" " + n.name)
			}
		}
		if len(args) > 0 {
			b.WriteString("(" + strings.Join(args, ", ") + ")")
		}
		b.WriteString(" " + n.shape.String())
		if !n.domain.Empty() {
			b.WriteString(" " + n.domain.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// sameNodes compares slices of nodes by identity
func sameNodes(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
