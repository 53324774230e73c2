package sticker

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// traverseScene emits render commands without drawing.
func traverseScene(s *Scene) {
	s.commands = s.commands[:0]
	treeOrder := 0
	s.traverse(s.root, identityTransform, 1.0, false, &treeOrder)
}

func names(cmds []renderCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.node.Name
	}
	return out
}

func assertOrder(t *testing.T, cmds []renderCommand, want ...string) {
	t.Helper()
	got := names(cmds)
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}
}

// --- Command emission ---

func TestSingleSpriteEmitsOneCommand(t *testing.T) {
	s := NewScene()
	s.Root().AddChild(NewRect("s", 32, 32, ColorWhite))

	traverseScene(s)
	assertOrder(t, s.commands, "s")
}

func TestSkippedNodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(root *Node)
	}{
		{"invisible node", func(root *Node) {
			n := NewRect("s", 32, 32, ColorWhite)
			n.Visible = false
			root.AddChild(n)
		}},
		{"invisible subtree", func(root *Node) {
			parent := NewContainer("parent")
			parent.Visible = false
			parent.AddChild(NewRect("child", 32, 32, ColorWhite))
			root.AddChild(parent)
		}},
		{"container", func(root *Node) {
			root.AddChild(NewContainer("c"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScene()
			tt.setup(s.Root())
			traverseScene(s)
			if len(s.commands) != 0 {
				t.Errorf("commands = %v, want none", names(s.commands))
			}
		})
	}
}

func TestNonRenderableNodeKeepsChildren(t *testing.T) {
	s := NewScene()
	parent := NewRect("parent", 10, 10, ColorWhite)
	parent.Renderable = false
	parent.AddChild(NewRect("child", 10, 10, ColorWhite))
	s.Root().AddChild(parent)

	traverseScene(s)
	assertOrder(t, s.commands, "child")
}

func TestTreeOrderAssignment(t *testing.T) {
	s := NewScene()
	for _, name := range []string{"a", "b", "c"} {
		s.Root().AddChild(NewRect(name, 1, 1, ColorWhite))
	}

	traverseScene(s)
	for i, cmd := range s.commands {
		if cmd.treeOrder != i+1 {
			t.Errorf("commands[%d].treeOrder = %d, want %d", i, cmd.treeOrder, i+1)
		}
	}
}

func TestWorldAlphaInCommand(t *testing.T) {
	s := NewScene()
	parent := NewContainer("parent")
	parent.Alpha = 0.5
	child := NewRect("child", 10, 10, ColorWhite)
	child.Alpha = 0.5
	parent.AddChild(child)
	s.Root().AddChild(parent)

	traverseScene(s)
	assertNear(t, "alpha", s.commands[0].alpha, 0.25)
}

func TestCommandTransformIncludesParent(t *testing.T) {
	s := NewScene()
	parent := NewContainer("parent")
	parent.SetPosition(35, 58)
	child := NewRect("child", 10, 10, ColorWhite)
	child.SetPosition(5, 90)
	parent.AddChild(child)
	s.Root().AddChild(parent)

	traverseScene(s)
	x, y := transformPoint(s.commands[0].transform, 0, 0)
	assertNear(t, "x", x, 40)
	assertNear(t, "y", y, 148)
}

// --- Sorting ---

func TestRenderLayerSorting(t *testing.T) {
	s := NewScene()
	a := NewRect("a", 1, 1, ColorWhite)
	a.RenderLayer = 1
	b := NewRect("b", 1, 1, ColorWhite)
	s.Root().AddChild(a)
	s.Root().AddChild(b)

	traverseScene(s)
	sortCommands(s.commands)
	assertOrder(t, s.commands, "b", "a")
}

func TestTreeOrderPreservedWithinLayer(t *testing.T) {
	s := NewScene()
	all := []string{"a", "b", "c", "d", "e"}
	for i, name := range all {
		n := NewRect(name, 1, 1, ColorWhite)
		n.RenderLayer = uint8(i % 2)
		s.Root().AddChild(n)
	}

	traverseScene(s)
	sortCommands(s.commands)
	assertOrder(t, s.commands, "a", "c", "e", "b", "d")
}

func TestZIndexSorting(t *testing.T) {
	s := NewScene()
	a := NewRect("a", 1, 1, ColorWhite)
	b := NewRect("b", 1, 1, ColorWhite)
	c := NewRect("c", 1, 1, ColorWhite)
	a.SetZIndex(2)
	b.SetZIndex(0)
	c.SetZIndex(1)
	s.Root().AddChild(a)
	s.Root().AddChild(b)
	s.Root().AddChild(c)

	traverseScene(s)
	assertOrder(t, s.commands, "b", "c", "a")

	// Changing a ZIndex after insertion resorts on the next traversal.
	b.SetZIndex(5)
	traverseScene(s)
	assertOrder(t, s.commands, "c", "a", "b")
}

func TestZIndexStableForEqualValues(t *testing.T) {
	s := NewScene()
	for _, name := range []string{"a", "b", "c"} {
		n := NewRect(name, 1, 1, ColorWhite)
		n.SetZIndex(1)
		s.Root().AddChild(n)
	}
	top := NewRect("top", 1, 1, ColorWhite)
	s.Root().AddChild(top)
	top.SetZIndex(0)

	traverseScene(s)
	assertOrder(t, s.commands, "top", "a", "b", "c")
}

func TestGeoMMatchesAffine(t *testing.T) {
	m := [6]float64{2, 0.5, -0.5, 3, 10, 20}
	g := geoM(m)
	gx, gy := g.Apply(4, 7)
	x, y := transformPoint(m, 4, 7)
	assertNear(t, "x", gx, x)
	assertNear(t, "y", gy, y)
}

func TestRenderTreeDrawsWithoutPanic(t *testing.T) {
	s := NewScene()
	s.Root().AddChild(NewRect("r", 4, 4, ColorWhite))
	target := ebiten.NewImage(8, 8)
	defer target.Deallocate()

	s.renderTree(target, s.root, identityTransform)
	assertOrder(t, s.commands, "r")
}
