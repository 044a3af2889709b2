// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mesh implements one-dimensional finite volume meshes over named domains
package mesh

import (
	"math"
	"sort"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Coord defines the coordinate system of a submesh
type Coord int

const (
	Cartesian Coord = iota // x
	Spherical              // r; e.g. electrode particles
)

// CoordByName returns the coordinate system with the given name
func CoordByName(name string) (Coord, error) {
	switch strings.ToLower(name) {
	case "", "cartesian":
		return Cartesian, nil
	case "spherical":
		return Spherical, nil
	}
	return 0, chk.Err("unknown coordinate system %q", name)
}

// String returns "cartesian" or "spherical"
func (o Coord) String() string {
	if o == Spherical {
		return "spherical"
	}
	return "cartesian"
}

// Submesh holds the cells of one domain. Cell i spans [Edges[i], Edges[i+1]] and has its
// centre (node) at Nodes[i]
type Submesh struct {
	Domain string    // name of domain
	Coord  Coord     // coordinate system
	Edges  []float64 // [npts+1] face coordinates
	Nodes  []float64 // [npts] cell centres
	DEdges []float64 // [npts] cell widths Edges[i+1]-Edges[i]
	DNodes []float64 // [npts-1] distances Nodes[i+1]-Nodes[i]
}

// NewSubmesh returns a new submesh with the given edges
func NewSubmesh(domain string, coord Coord, edges []float64) (o *Submesh, err error) {
	if len(edges) < 2 {
		return nil, chk.Err("submesh %q needs at least two edges; got %d", domain, len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, chk.Err("edges of submesh %q must be strictly increasing; edges[%d]=%g, edges[%d]=%g", domain, i-1, edges[i-1], i, edges[i])
		}
	}
	if coord == Spherical && edges[0] < 0 {
		return nil, chk.Err("spherical submesh %q cannot have negative radius %g", domain, edges[0])
	}
	n := len(edges) - 1
	o = &Submesh{Domain: domain, Coord: coord, Edges: append([]float64{}, edges...)}
	o.Nodes = make([]float64, n)
	o.DEdges = make([]float64, n)
	for i := 0; i < n; i++ {
		o.Nodes[i] = (edges[i] + edges[i+1]) / 2
		o.DEdges[i] = edges[i+1] - edges[i]
	}
	o.DNodes = make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		o.DNodes[i] = o.Nodes[i+1] - o.Nodes[i]
	}
	return
}

// Uniform returns a submesh with npts cells of equal width over [xmin, xmax]
func Uniform(domain string, coord Coord, xmin, xmax float64, npts int) (*Submesh, error) {
	if npts < 1 {
		return nil, chk.Err("submesh %q needs at least one cell; got %d", domain, npts)
	}
	return NewSubmesh(domain, coord, utl.LinSpace(xmin, xmax, npts+1))
}

// N returns the number of cells
func (o *Submesh) N() int { return len(o.Nodes) }

// Min returns the first edge
func (o *Submesh) Min() float64 { return o.Edges[0] }

// Max returns the last edge
func (o *Submesh) Max() float64 { return o.Edges[len(o.Edges)-1] }

// Area returns the face measure at edge i: 1 in Cartesian and r² in spherical coordinates.
// The 4π factor is left to Volume
func (o *Submesh) Area(i int) float64 {
	if o.Coord == Spherical {
		return o.Edges[i] * o.Edges[i]
	}
	return 1
}

// Volume returns the measure of cell i: its width in Cartesian coordinates and the shell
// volume 4π(r₁³-r₀³)/3 in spherical coordinates
func (o *Submesh) Volume(i int) float64 {
	if o.Coord == Spherical {
		a, b := o.Edges[i], o.Edges[i+1]
		return 4 * math.Pi * (b*b*b - a*a*a) / 3
	}
	return o.DEdges[i]
}

// Mesh holds the submeshes of all domains. It is read-only after New
type Mesh struct {
	subs map[string]*Submesh
}

// New returns a new mesh with the given submeshes
func New(subs ...*Submesh) (o *Mesh, err error) {
	o = &Mesh{subs: make(map[string]*Submesh)}
	for _, s := range subs {
		if _, ok := o.subs[s.Domain]; ok {
			return nil, chk.Err("domain %q has more than one submesh", s.Domain)
		}
		o.subs[s.Domain] = s
	}
	return
}

// FromEdges returns a Cartesian mesh given the edges of each domain
func FromEdges(edges map[string][]float64) (o *Mesh, err error) {
	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	sort.Strings(names)
	var subs []*Submesh
	for _, name := range names {
		s, err := NewSubmesh(name, Cartesian, edges[name])
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return New(subs...)
}

// Get returns the submesh of a domain
func (o *Mesh) Get(domain string) (s *Submesh, ok bool) {
	s, ok = o.subs[domain]
	return
}

// Domains returns the sorted names of all domains
func (o *Mesh) Domains() (names []string) {
	for name := range o.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Combine returns the submesh spanning the given adjacent domains in order. The last edge of
// each submesh must coincide with the first edge of the next one
func (o *Mesh) Combine(domains []string) (*Submesh, error) {
	if len(domains) == 0 {
		return nil, chk.Err("cannot combine an empty list of domains")
	}
	first, ok := o.subs[domains[0]]
	if !ok {
		return nil, chk.Err("domain %q has no submesh", domains[0])
	}
	if len(domains) == 1 {
		return first, nil
	}
	edges := append([]float64{}, first.Edges...)
	for _, name := range domains[1:] {
		s, ok := o.subs[name]
		if !ok {
			return nil, chk.Err("domain %q has no submesh", name)
		}
		if s.Coord != first.Coord {
			return nil, chk.Err("cannot combine %s domain %q with %s domain %q", first.Coord, first.Domain, s.Coord, name)
		}
		last := edges[len(edges)-1]
		if math.Abs(s.Edges[0]-last) > 1e-12*math.Max(1, math.Abs(last)) {
			return nil, chk.Err("domains %v are not adjacent: %q starts at %g but the previous domain ends at %g", domains, name, s.Edges[0], last)
		}
		edges = append(edges, s.Edges[1:]...)
	}
	return NewSubmesh(strings.Join(domains, "+"), first.Coord, edges)
}
