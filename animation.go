package sticker

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// StickerSpringDuration is how long the sticker takes to settle after a
// size change, in seconds.
const StickerSpringDuration = 0.35

// TweenGroup animates up to 2 float64 fields on a Node simultaneously.
// Create one via TweenPosition, TweenScale or TweenAlpha and either call
// Update(dt) yourself or hand it to Scene.AddTween. The group writes values
// into the node and marks it dirty. If the target node is disposed, the group
// stops immediately.
type TweenGroup struct {
	tweens [2]*gween.Tween
	count  int
	fields [2]*float64
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds, writes values to the target fields,
// and marks the node dirty.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// Stop ends the group where it is. Fields keep their current values.
func (g *TweenGroup) Stop() {
	g.Done = true
}

func newTweenGroup(node *Node, duration float32, fn ease.TweenFunc, pairs ...tweenPair) *TweenGroup {
	g := &TweenGroup{count: len(pairs), target: node}
	for i, p := range pairs {
		g.tweens[i] = gween.New(float32(*p.field), float32(p.to), duration, fn)
		g.fields[i] = p.field
	}
	return g
}

type tweenPair struct {
	field *float64
	to    float64
}

// TweenPosition creates a TweenGroup that animates node.X and node.Y to the
// given target coordinates.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, tweenPair{&node.X, toX}, tweenPair{&node.Y, toY})
}

// TweenScale creates a TweenGroup that animates node.ScaleX and node.ScaleY to
// the given target values.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, tweenPair{&node.ScaleX, toSX}, tweenPair{&node.ScaleY, toSY})
}

// TweenAlpha creates a TweenGroup that animates node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, tweenPair{&node.Alpha, to})
}

// springEase overshoots slightly before settling, close to a critically
// under-damped spring.
var springEase ease.TweenFunc = ease.OutBack
