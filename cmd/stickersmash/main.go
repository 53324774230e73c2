// Stickersmash is a desktop sticker editor: pick a background photo, place an
// emoji sticker on it, drag it around, double-tap to resize, and save the
// result as a PNG.
//
// Drop an image file onto the window after pressing "Choose a photo", or
// pass one with -image. Escape cancels a pending pick or closes the sticker
// picker. Settings come from STICKER_* environment variables; see
// sticker.Config.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/sticker"
	"github.com/phanxgames/sticker/ecs"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	labelFontSize = 18
	dropPrompt    = "Drop an image onto the window (Esc to cancel)"
	// scriptExitDelay leaves room for the last queued screenshot to be drawn.
	scriptExitDelay = 3
)

type game struct {
	cfg    sticker.Config
	log    *logrus.Entry
	scene  *sticker.Scene
	ctrl   *sticker.Controller
	stage  *sticker.Stage
	drop   *sticker.DropPicker
	world  donburi.World
	runner *sticker.TestRunner

	prompted bool
	exitIn   int
}

func main() {
	imagePath := flag.String("image", "", "start with this image as the background")
	scriptPath := flag.String("script", "", "run a JSON input script, then exit")
	debug := flag.Bool("debug", false, "enable debug checks and frame stats")
	flag.Parse()

	if err := run(*imagePath, *scriptPath, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "stickersmash:", err)
		os.Exit(1)
	}
}

func run(imagePath, scriptPath string, debug bool) error {
	cfg, err := sticker.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Debug = cfg.Debug || debug

	logger := sticker.NewLogger(cfg)
	log := logger.WithField("app", "stickersmash")

	g, err := newGame(cfg, log, imagePath)
	if err != nil {
		return err
	}
	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		if g.runner, err = sticker.LoadTestScript(data); err != nil {
			return err
		}
		g.scene.SetTestRunner(g.runner)
		log.WithField("script", scriptPath).Info("running script")
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	log.WithFields(logrus.Fields{"width": cfg.Width, "height": cfg.Height}).Info("starting")
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

func newGame(cfg sticker.Config, log *logrus.Entry, imagePath string) (*game, error) {
	font, err := sticker.LoadTTFFont(goregular.TTF, labelFontSize)
	if err != nil {
		return nil, err
	}
	lay := cfg.Layout()

	scene := sticker.NewScene()
	scene.SetLogger(log.WithField("component", "scene"))
	scene.SetDebugMode(cfg.Debug)
	scene.ScreenshotDir = cfg.ScreenshotDir

	cache := sticker.NewImageCache()
	sticker.RegisterBundledAssets(cache, lay)

	world := donburi.NewWorld()
	ecs.NewActivityLog(world, log.WithField("component", "activity"), 64)

	drop := sticker.NewDropPicker()
	drop.Dir = cfg.DropDir
	var picker sticker.ImagePicker = drop
	if imagePath != "" {
		picker = sticker.FilePicker{Path: imagePath}
	}

	library := sticker.DirLibrary{Dir: cfg.ExportDir}
	ctrl := sticker.NewController(sticker.ControllerOptions{
		Picker:      picker,
		Permissions: library,
		Library:     library,
		Sink:        ecs.NewDonburiSink(world),
		Logger:      log,
		StickerSize: cfg.StickerSize,
		ExportSize:  sticker.DefaultExportSize,
	})

	stage := sticker.NewStage(scene, ctrl, cache, font, lay, log)
	ctrl.SetRenderer(stage.Snapshotter())
	if cfg.ShowFPS {
		scene.Root().AddChild(sticker.NewFPSWidget(lay))
	}

	g := &game{
		cfg:   cfg,
		log:   log,
		scene: scene,
		ctrl:  ctrl,
		stage: stage,
		drop:  drop,
		world: world,
	}
	scene.OnKey(g.onKey)

	if imagePath != "" {
		if err := ctrl.PickImage(context.Background()); err != nil {
			log.WithError(err).WithField("image", imagePath).Warn("starting without image")
		}
	}
	return g, nil
}

func (g *game) onKey(k ebiten.Key) {
	switch k {
	case ebiten.KeyEscape:
		if g.drop.Cancel() {
			return
		}
		if g.ctrl.Session().Phase() == sticker.PhasePickerOpen {
			_ = g.ctrl.Dispatch(sticker.Action{Kind: sticker.ActionClosePicker})
		}
	case ebiten.KeyS:
		if g.ctrl.Session().State().IsEditing {
			_ = g.ctrl.Dispatch(sticker.Action{Kind: sticker.ActionSave})
		}
	case ebiten.KeyR:
		_ = g.ctrl.Dispatch(sticker.Action{Kind: sticker.ActionReset})
	}
}

func (g *game) Update() error {
	g.scene.Update()
	g.drop.Poll()
	g.ctrl.Poll()
	events.ProcessAllEvents(g.world)

	switch waiting := g.drop.Waiting(); {
	case waiting && !g.prompted:
		g.stage.Notify(dropPrompt)
		g.prompted = true
	case !waiting:
		g.prompted = false
	}

	if g.runner != nil && g.runner.Done() {
		if g.exitIn == 0 {
			g.exitIn = scriptExitDelay
		}
		g.exitIn--
		if g.exitIn == 0 {
			g.log.Info("script finished")
			return ebiten.Termination
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
