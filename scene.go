package sticker

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

const defaultCommandCap = 64

// Scene is the top-level object that owns the node tree, input state and
// render buffers.
type Scene struct {
	root     *Node
	debug    bool
	headless bool
	log      *logrus.Entry

	// ClearColor fills the screen before drawing. A zero alpha skips the fill.
	ClearColor Color

	// ScreenshotDir is where Screenshot captures are written.
	ScreenshotDir string

	// Render state
	commands []renderCommand

	// Input state
	handlers     handlerRegistry
	pointers     [maxPointers]pointerState
	hitBuf       []*Node
	dragDeadZone float64
	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID
	frame        uint64
	lastTap      tapRecord
	keyBuf       []ebiten.Key

	// DoubleTapFrames is the maximum number of frames between two clicks
	// that still count as a double tap.
	DoubleTapFrames uint64
	// DoubleTapSlop is the maximum distance in pixels between two clicks
	// that still count as a double tap.
	DoubleTapSlop float64

	// Synthetic input and scripted runs
	injectQueue     []syntheticPointerEvent
	injectKeys      []ebiten.Key
	testRunner      *TestRunner
	screenshotQueue []string

	tweens []*TweenGroup
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	root.Interactable = true
	return &Scene{
		root:            root,
		log:             debugLog,
		ScreenshotDir:   "screenshots",
		commands:        make([]renderCommand, 0, defaultCommandCap),
		dragDeadZone:    defaultDragDeadZone,
		DoubleTapFrames: defaultDoubleTapFrames,
		DoubleTapSlop:   defaultDoubleTapSlop,
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// SetLogger replaces the scene logger. Node-level debug warnings follow it.
func (s *Scene) SetLogger(log *logrus.Entry) {
	s.log = log
	debugLog = log
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth warnings are logged, and per-frame timing stats
// are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// SetHeadless disables polling of the real mouse and touch screen. Injected
// input still flows, which keeps scripted runs deterministic.
func (s *Scene) SetHeadless(enabled bool) {
	s.headless = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply.
var globalDebug bool

// AddTween registers a tween to be advanced every Update. Finished tweens are
// dropped automatically.
func (s *Scene) AddTween(g *TweenGroup) {
	s.tweens = append(s.tweens, g)
}

// Update advances the scripted runner, processes input, runs node OnUpdate
// hooks and advances tweens.
func (s *Scene) Update() {
	dt := 1.0 / float64(ebiten.TPS())
	s.step(dt)
}

// step is Update with an explicit frame delta.
func (s *Scene) step(dt float64) {
	// Refresh world transforms first so hit testing has accurate positions.
	updateWorldTransform(s.root, identityTransform, 1.0, false)

	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	s.processInput()
	updateNodes(s.root, dt)

	live := s.tweens[:0]
	for _, g := range s.tweens {
		g.Update(float32(dt))
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(s.tweens[len(live):])
	s.tweens = live
}

// Draw renders the scene to screen and flushes queued screenshots.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	s.renderTree(screen, s.root, identityTransform)
	s.flushScreenshots(screen)
}
