// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package simp implements algebraic simplification and common-subexpression elimination
package simp

import (
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/io"
)

// Simplifier rewrites graphs into cheaper equivalent graphs. Its tables are private: one
// Simplifier must not be used by two goroutines at the same time
type Simplifier struct {
	Verbose  bool                   // show statistics after each call
	memo     sym.Memo               // original node id => simplified node
	canon    map[string]*sym.Node   // content key => canonical node
	products map[[2]int64]*sym.Node // (id of A, id of B) => matrix node with A B
	nrewrite int                    // number of applied rules
}

// New returns a new Simplifier
func New() (o *Simplifier) {
	o = new(Simplifier)
	o.memo = make(sym.Memo)
	o.canon = make(map[string]*sym.Node)
	o.products = make(map[[2]int64]*sym.Node)
	return
}

// Simplify simplifies root with a new Simplifier
func Simplify(root *sym.Node) (*sym.Node, error) {
	return New().Simplify(root)
}

// Simplify returns a graph computing the same values as root. Structurally identical
// subgraphs are collapsed into one node. Calling Simplify on the result returns the result
func (o *Simplifier) Simplify(root *sym.Node) (res *sym.Node, err error) {
	nbefore := o.nrewrite
	res, err = sym.TransformMemo(root, o.memo, o.visit)
	if err != nil {
		return
	}
	if o.Verbose {
		io.Pf("simplify: %d nodes => %d nodes. %d rules applied\n", sym.Count(root), sym.Count(res), o.nrewrite-nbefore)
	}
	return
}

// Rewrites returns the number of rules applied so far
func (o *Simplifier) Rewrites() int { return o.nrewrite }

// visit simplifies one node whose children are already simplified
func (o *Simplifier) visit(n *sym.Node, children []*sym.Node) (*sym.Node, error) {
	r, err := n.WithChildren(children)
	if err != nil {
		return nil, err
	}
	if c, ok := o.canon[r.Key()]; ok {
		return c, nil
	}
	key := r.Key()
	cur := r
	for {
		next, err := o.rewrite(cur)
		if err != nil {
			return nil, err
		}
		if next == cur {
			break
		}
		o.nrewrite++
		if c, ok := o.canon[next.Key()]; ok {
			cur = c
			break
		}
		cur = next
	}
	cur = o.intern(cur)
	o.canon[key] = cur
	return cur, nil
}

// intern returns the canonical node with the same key as n
func (o *Simplifier) intern(n *sym.Node) *sym.Node {
	if c, ok := o.canon[n.Key()]; ok {
		return c
	}
	o.canon[n.Key()] = n
	return n
}
