package sticker

import (
	"cmp"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderCommand is a single draw instruction emitted during scene traversal.
type renderCommand struct {
	node        *Node
	transform   [6]float64
	alpha       float64
	renderLayer uint8
	treeOrder   int // assigned during traversal for stable sort
}

// whitePixel is a lazily created 1x1 white image used for solid color sprites.
var whitePixel *ebiten.Image

func solidPixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toRGBA())
	}
	return whitePixel
}

// geoM converts an affine matrix to an ebiten.GeoM.
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// traverse walks the node tree depth-first, updating transforms and appending
// render commands for visible, renderable nodes.
func (s *Scene) traverse(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool, treeOrder *int) {
	if !n.Visible {
		return
	}

	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = multiplyAffine(parentTransform, computeLocalTransform(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	if n.Renderable && n.Type != NodeTypeContainer {
		*treeOrder++
		s.commands = append(s.commands, renderCommand{
			node:        n,
			transform:   n.worldTransform,
			alpha:       n.worldAlpha,
			renderLayer: n.RenderLayer,
			treeOrder:   *treeOrder,
		})
	}

	if len(n.children) == 0 {
		return
	}
	children := n.children
	if !n.childrenSorted {
		rebuildSortedChildren(n)
	}
	if n.sortedChildren != nil {
		children = n.sortedChildren
	}
	for _, child := range children {
		s.traverse(child, n.worldTransform, n.worldAlpha, recompute, treeOrder)
	}
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Insertion sort keeps it stable and allocation free for nearly sorted input.
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].ZIndex > key.ZIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// sortCommands orders commands by render layer, then tree order.
func sortCommands(cmds []renderCommand) {
	slices.SortStableFunc(cmds, func(a, b renderCommand) int {
		if c := cmp.Compare(a.renderLayer, b.renderLayer); c != 0 {
			return c
		}
		return cmp.Compare(a.treeOrder, b.treeOrder)
	})
}

// submit draws every command onto target in order.
func (s *Scene) submit(target *ebiten.Image) {
	var op ebiten.DrawImageOptions
	for i := range s.commands {
		cmd := &s.commands[i]
		n := cmd.node
		switch n.Type {
		case NodeTypeSprite:
			op.GeoM.Reset()
			op.ColorScale.Reset()
			img := n.Image
			if img == nil {
				img = solidPixel()
				op.GeoM.Scale(n.Width, n.Height)
			}
			op.GeoM.Concat(geoM(cmd.transform))
			op.ColorScale.ScaleWithColor(Color{n.Color.R, n.Color.G, n.Color.B, n.Color.A * cmd.alpha}.toRGBA())
			op.Filter = ebiten.FilterLinear
			target.DrawImage(img, &op)
		case NodeTypeText:
			if n.TextBlock != nil {
				drawText(target, n.TextBlock, cmd.transform, cmd.alpha)
			}
		}
	}
}

// renderTree emits, sorts and submits the subtree rooted at n onto target,
// using view as the parent transform of n.
func (s *Scene) renderTree(target *ebiten.Image, n *Node, view [6]float64) {
	s.commands = s.commands[:0]

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	treeOrder := 0
	// Force recomputation so an off-tree view transform is honored.
	s.traverse(n, view, 1.0, true, &treeOrder)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		t0 = time.Now()
	}

	sortCommands(s.commands)

	if s.debug {
		stats.sortTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submit(target)

	if s.debug {
		stats.submitTime = time.Since(t0)
		s.debugLogStats(stats)
	}
}
