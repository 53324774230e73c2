package sticker

import (
	"fmt"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	maxPointers            = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone    = 4.0 // pixels
	defaultDoubleTapFrames = 20  // ~330ms at 60 TPS
	defaultDoubleTapSlop   = 24.0
)

// --- Built-in HitShape types ---

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// --- Per-pointer state ---

type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	hitNode  *Node
	dragging bool
	button   MouseButton // button captured at press time
}

// tapRecord remembers the last click so the next one can be paired into a
// double tap.
type tapRecord struct {
	node  *Node
	x, y  float64
	frame uint64
}

// --- Handler registry ---

type handler[T any] struct {
	id uint32
	fn func(T)
}

type handlerRegistry struct {
	pointerDown []handler[PointerContext]
	pointerUp   []handler[PointerContext]
	click       []handler[PointerContext]
	doubleTap   []handler[PointerContext]
	dragStart   []handler[DragContext]
	drag        []handler[DragContext]
	dragEnd     []handler[DragContext]
	keyPress    []handler[ebiten.Key]
	nextID      uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventPointerDown:
		h.reg.pointerDown = removeHandler(h.reg.pointerDown, h.id)
	case EventPointerUp:
		h.reg.pointerUp = removeHandler(h.reg.pointerUp, h.id)
	case EventClick:
		h.reg.click = removeHandler(h.reg.click, h.id)
	case EventDoubleTap:
		h.reg.doubleTap = removeHandler(h.reg.doubleTap, h.id)
	case EventDragStart:
		h.reg.dragStart = removeHandler(h.reg.dragStart, h.id)
	case EventDrag:
		h.reg.drag = removeHandler(h.reg.drag, h.id)
	case EventDragEnd:
		h.reg.dragEnd = removeHandler(h.reg.dragEnd, h.id)
	case EventKeyPress:
		h.reg.keyPress = removeHandler(h.reg.keyPress, h.id)
	}
}

func removeHandler[T any](s []handler[T], id uint32) []handler[T] {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = handler[T]{}
			return s[:len(s)-1]
		}
	}
	return s
}

func addHandler[T any](reg *handlerRegistry, list *[]handler[T], event EventType, fn func(T)) CallbackHandle {
	reg.nextID++
	*list = append(*list, handler[T]{id: reg.nextID, fn: fn})
	return CallbackHandle{id: reg.nextID, reg: reg, event: event}
}

// OnPointerDown registers a scene-level callback for pointer down events.
func (s *Scene) OnPointerDown(fn func(PointerContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.pointerDown, EventPointerDown, fn)
}

// OnPointerUp registers a scene-level callback for pointer up events.
func (s *Scene) OnPointerUp(fn func(PointerContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.pointerUp, EventPointerUp, fn)
}

// OnClick registers a scene-level callback for click events.
func (s *Scene) OnClick(fn func(PointerContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.click, EventClick, fn)
}

// OnDoubleTap registers a scene-level callback for double tap events.
func (s *Scene) OnDoubleTap(fn func(PointerContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.doubleTap, EventDoubleTap, fn)
}

// OnDragStart registers a scene-level callback for drag start events.
func (s *Scene) OnDragStart(fn func(DragContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.dragStart, EventDragStart, fn)
}

// OnDrag registers a scene-level callback for drag events.
func (s *Scene) OnDrag(fn func(DragContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.drag, EventDrag, fn)
}

// OnDragEnd registers a scene-level callback for drag end events.
func (s *Scene) OnDragEnd(fn func(DragContext)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.dragEnd, EventDragEnd, fn)
}

// OnKey registers a scene-level callback for key presses.
func (s *Scene) OnKey(fn func(ebiten.Key)) CallbackHandle {
	return addHandler(&s.handlers, &s.handlers.keyPress, EventKeyPress, fn)
}

// ParseKey resolves a key name such as "Escape" or "S", ignoring case.
func ParseKey(name string) (ebiten.Key, error) {
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// SetDragDeadZone sets the minimum movement in pixels before a drag starts.
func (s *Scene) SetDragDeadZone(pixels float64) {
	s.dragDeadZone = pixels
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region.
// Uses HitShape if set; otherwise the node's local size.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	w, h := n.Size()
	if w == 0 && h == 0 {
		return false
	}
	return lx >= 0 && lx <= w && ly >= 0 && ly <= h
}

// collectInteractable walks the tree in painter order, appending interactable
// nodes to buf. Skips Visible=false or Interactable=false subtrees.
func collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Interactable {
		return buf
	}
	if n.HitShape != nil || n.Type != NodeTypeContainer {
		buf = append(buf, n)
	}
	if len(n.children) == 0 {
		return buf
	}
	children := n.children
	if !n.childrenSorted {
		rebuildSortedChildren(n)
	}
	if n.sortedChildren != nil {
		children = n.sortedChildren
	}
	for _, child := range children {
		buf = collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY).
// Returns nil if nothing is hit.
func (s *Scene) hitTest(worldX, worldY float64) *Node {
	s.hitBuf = collectInteractable(s.root, s.hitBuf[:0])
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if nodeContainsLocal(n, lx, ly) {
			return n
		}
	}
	return nil
}

// --- Input processing ---

// processInput is called from Scene.Update to handle mouse and touch input.
// A frame that consumes an injected event skips real input polling, as does
// a headless scene.
func (s *Scene) processInput() {
	s.frame++
	s.processInjectedKeys()
	if s.processInjectedInput() || s.headless {
		return
	}
	s.processMousePointer()
	s.processTouchPointers()
	s.processKeys()
}

// processKeys fires key handlers for keys pressed this frame.
func (s *Scene) processKeys() {
	if len(s.handlers.keyPress) == 0 {
		return
	}
	s.keyBuf = inpututil.AppendJustPressedKeys(s.keyBuf[:0])
	for _, k := range s.keyBuf {
		s.fireKey(k)
	}
}

func (s *Scene) fireKey(k ebiten.Key) {
	for _, h := range s.handlers.keyPress {
		h.fn(k)
	}
}

// processMousePointer handles mouse input (pointer 0).
func (s *Scene) processMousePointer() {
	mx, my := ebiten.CursorPosition()

	var pressed bool
	var button MouseButton
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		pressed, button = true, MouseButtonLeft
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		pressed, button = true, MouseButtonRight
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle):
		pressed, button = true, MouseButtonMiddle
	}

	s.processPointer(0, float64(mx), float64(my), pressed, button)
}

// processTouchPointers handles touch input (pointers 1-9).
func (s *Scene) processTouchPointers() {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.processPointer(slot, float64(tx), float64(ty), true, MouseButtonLeft)
	}

	// Release any touch slots that are no longer active.
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && !activeSlots[i] {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastX, ps.lastY, false, MouseButtonLeft)
			}
			s.touchUsed[i] = false
			s.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (s *Scene) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUsed[i] {
			s.touchUsed[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processPointer runs the pointer state machine for a single pointer.
func (s *Scene) processPointer(pointerID int, wx, wy float64, pressed bool, button MouseButton) {
	ps := &s.pointers[pointerID]

	target := s.hitTest(wx, wy)

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = wx, wy
		ps.lastX, ps.lastY = wx, wy
		ps.hitNode = target
		ps.dragging = false
		s.firePointer(EventPointerDown, target, pointerID, wx, wy, ps.button)

	case !pressed && ps.down:
		if ps.dragging {
			s.fireDrag(EventDragEnd, ps.hitNode, pointerID, wx, wy, ps.startX, ps.startY,
				wx-ps.lastX, wy-ps.lastY, ps.button)
		} else if ps.hitNode != nil && ps.hitNode == target {
			s.fireClick(target, pointerID, wx, wy, ps.button)
		}
		s.firePointer(EventPointerUp, target, pointerID, wx, wy, ps.button)

		ps.down = false
		ps.hitNode = nil
		ps.dragging = false

	case pressed && ps.down:
		if wx != ps.lastX || wy != ps.lastY {
			if !ps.dragging {
				dx := wx - ps.startX
				dy := wy - ps.startY
				if math.Hypot(dx, dy) > s.dragDeadZone {
					ps.dragging = true
					s.fireDrag(EventDragStart, ps.hitNode, pointerID, wx, wy, ps.startX, ps.startY,
						0, 0, ps.button)
					// The movement that crossed the dead zone counts as the first delta.
					ps.lastX, ps.lastY = ps.startX, ps.startY
				}
			}
			if ps.dragging {
				s.fireDrag(EventDrag, ps.hitNode, pointerID, wx, wy, ps.startX, ps.startY,
					wx-ps.lastX, wy-ps.lastY, ps.button)
			}
		}
		ps.lastX, ps.lastY = wx, wy
	}
}

// fireClick dispatches a click and, when it pairs with the previous click on
// the same node, a double tap.
func (s *Scene) fireClick(node *Node, pointerID int, wx, wy float64, button MouseButton) {
	s.firePointer(EventClick, node, pointerID, wx, wy, button)

	last := s.lastTap
	if last.node == node && s.frame-last.frame <= s.DoubleTapFrames &&
		math.Hypot(wx-last.x, wy-last.y) <= s.DoubleTapSlop {
		s.lastTap = tapRecord{}
		s.firePointer(EventDoubleTap, node, pointerID, wx, wy, button)
		return
	}
	s.lastTap = tapRecord{node: node, x: wx, y: wy, frame: s.frame}
}

// --- Event dispatch ---

func (s *Scene) firePointer(event EventType, node *Node, pointerID int, wx, wy float64, button MouseButton) {
	ctx := PointerContext{
		Node: node, GlobalX: wx, GlobalY: wy,
		Button: button, PointerID: pointerID,
	}
	if node != nil {
		ctx.LocalX, ctx.LocalY = node.WorldToLocal(wx, wy)
		ctx.UserData = node.UserData
	}

	var list []handler[PointerContext]
	var cb func(PointerContext)
	switch event {
	case EventPointerDown:
		list = s.handlers.pointerDown
		if node != nil {
			cb = node.OnPointerDown
		}
	case EventPointerUp:
		list = s.handlers.pointerUp
		if node != nil {
			cb = node.OnPointerUp
		}
	case EventClick:
		list = s.handlers.click
		if node != nil {
			cb = node.OnClick
		}
	case EventDoubleTap:
		list = s.handlers.doubleTap
		if node != nil {
			cb = node.OnDoubleTap
		}
	}
	// Scene-level handlers first, then the per-node callback.
	for _, h := range list {
		h.fn(ctx)
	}
	if cb != nil {
		cb(ctx)
	}
}

func (s *Scene) fireDrag(event EventType, node *Node, pointerID int, wx, wy, startX, startY, deltaX, deltaY float64, button MouseButton) {
	ctx := DragContext{
		Node: node, GlobalX: wx, GlobalY: wy,
		StartX: startX, StartY: startY, DeltaX: deltaX, DeltaY: deltaY,
		Button: button, PointerID: pointerID,
	}
	if node != nil {
		ctx.UserData = node.UserData
	}

	var list []handler[DragContext]
	var cb func(DragContext)
	switch event {
	case EventDragStart:
		list = s.handlers.dragStart
		if node != nil {
			cb = node.OnDragStart
		}
	case EventDrag:
		list = s.handlers.drag
		if node != nil {
			cb = node.OnDrag
		}
	case EventDragEnd:
		list = s.handlers.dragEnd
		if node != nil {
			cb = node.OnDragEnd
		}
	}
	for _, h := range list {
		h.fn(ctx)
	}
	if cb != nil {
		cb(ctx)
	}
}
