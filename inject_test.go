package sticker

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestInjectClick(t *testing.T) {
	s := NewScene()
	n := box(s, "s", 0, 0, 100, 100)

	var clicked bool
	s.OnClick(func(ctx PointerContext) {
		clicked = true
		if ctx.Node != n {
			t.Error("expected the box node")
		}
	})

	s.InjectClick(50, 50)
	if len(s.injectQueue) != 2 {
		t.Fatalf("expected 2 queued events, got %d", len(s.injectQueue))
	}

	// Frame 1: press
	s.processInput()
	if len(s.injectQueue) != 1 {
		t.Fatalf("expected 1 remaining event after frame 1, got %d", len(s.injectQueue))
	}
	if clicked {
		t.Error("click should not fire on press frame")
	}

	// Frame 2: release, click fires
	s.processInput()
	if len(s.injectQueue) != 0 {
		t.Fatalf("expected 0 remaining events after frame 2, got %d", len(s.injectQueue))
	}
	if !clicked {
		t.Error("click should fire on release frame")
	}
}

func TestInjectDoubleTap(t *testing.T) {
	s := NewScene()
	n := box(s, "s", 0, 0, 100, 100)

	clicks, taps := 0, 0
	n.OnClick = func(PointerContext) { clicks++ }
	n.OnDoubleTap = func(PointerContext) { taps++ }

	s.InjectDoubleTap(40, 40)
	if len(s.injectQueue) != 4 {
		t.Fatalf("expected 4 queued events, got %d", len(s.injectQueue))
	}
	for range 4 {
		s.processInput()
	}
	if clicks != 2 || taps != 1 {
		t.Errorf("clicks=%d taps=%d, want 2 and 1", clicks, taps)
	}
}

func TestInjectDrag(t *testing.T) {
	s := NewScene()
	n := box(s, "s", 0, 0, 400, 400)

	var events []string
	var dx, dy float64
	s.OnDragStart(func(ctx DragContext) { events = append(events, "dragstart") })
	s.OnDrag(func(ctx DragContext) { events = append(events, "drag") })
	s.OnDragEnd(func(ctx DragContext) { events = append(events, "dragend") })
	n.OnDrag = func(ctx DragContext) { dx += ctx.DeltaX; dy += ctx.DeltaY }
	n.OnDragEnd = func(ctx DragContext) { dx += ctx.DeltaX; dy += ctx.DeltaY }

	// press at (10,10), three moves, release at (200,200)
	s.InjectDrag(10, 10, 200, 200, 5)
	if len(s.injectQueue) != 5 {
		t.Fatalf("expected 5 queued events, got %d", len(s.injectQueue))
	}
	for range 5 {
		s.processInput()
	}

	if len(events) < 3 {
		t.Fatalf("expected at least 3 events, got %v", events)
	}
	if events[0] != "dragstart" {
		t.Errorf("first event should be dragstart, got %s", events[0])
	}
	if events[len(events)-1] != "dragend" {
		t.Errorf("last event should be dragend, got %s", events[len(events)-1])
	}
	assertNear(t, "drag dx", dx, 190)
	assertNear(t, "drag dy", dy, 190)
}

func TestInjectDragMinFrames(t *testing.T) {
	s := NewScene()
	s.InjectDrag(0, 0, 100, 100, 1)
	if len(s.injectQueue) != 2 {
		t.Fatalf("expected 2 queued events (clamped), got %d", len(s.injectQueue))
	}
}

func TestInjectQueueOrder(t *testing.T) {
	s := NewScene()

	s.InjectPress(10, 20)
	s.InjectMove(30, 40)
	s.InjectRelease(50, 60)

	if len(s.injectQueue) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.injectQueue))
	}
	if !s.injectQueue[0].pressed || s.injectQueue[0].x != 10 {
		t.Error("first event should be press at (10,20)")
	}
	if !s.injectQueue[1].pressed || s.injectQueue[1].x != 30 {
		t.Error("second event should be move at (30,40)")
	}
	if s.injectQueue[2].pressed || s.injectQueue[2].x != 50 {
		t.Error("third event should be release at (50,60)")
	}
}

func TestProcessInjectedInput(t *testing.T) {
	s := NewScene()
	box(s, "s", 0, 0, 100, 100)

	var downFired bool
	s.OnPointerDown(func(ctx PointerContext) {
		downFired = true
		if ctx.GlobalX != 50 || ctx.GlobalY != 50 {
			t.Errorf("expected global (50,50), got (%v,%v)", ctx.GlobalX, ctx.GlobalY)
		}
	})

	s.InjectPress(50, 50)
	if !s.processInjectedInput() {
		t.Error("expected processInjectedInput to consume an event")
	}
	if !downFired {
		t.Error("pointer down should have fired")
	}
	if s.processInjectedInput() {
		t.Error("should not consume when queue is empty")
	}
}

func TestInjectKeyOrder(t *testing.T) {
	s := NewScene()
	s.SetHeadless(true)

	var got []ebiten.Key
	s.OnKey(func(k ebiten.Key) { got = append(got, k) })
	s.InjectKey(ebiten.KeyS)
	s.InjectKey(ebiten.KeyEscape)
	s.processInput()

	if len(got) != 2 || got[0] != ebiten.KeyS || got[1] != ebiten.KeyEscape {
		t.Errorf("keys = %v", got)
	}
	if len(s.injectKeys) != 0 {
		t.Errorf("key queue should drain, got %d", len(s.injectKeys))
	}
}
