// Package sticker is a small photo sticker editor built on [Ebitengine].
//
// The user picks a background photo (or keeps the bundled placeholder),
// places one emoji sticker on it, double taps to toggle the sticker between
// its base size and twice that, drags it anywhere, and saves the composed
// canvas as a PNG.
//
// # Model
//
// [Session] holds the editing state and the [StickerTransform] of the single
// placed sticker. It is a pure state machine:
//
//	NoImage -> ImageChosen -> Editing <-> PickerOpen
//
// with Reset returning to NoImage from anywhere. [Controller] owns a Session,
// turns [Action] values into transitions, runs the capabilities
// ([ImagePicker], [PermissionRequester], [ViewRenderer], [MediaLibrary]) and
// tells listeners after every change.
//
// # View
//
// [Compose] is a pure function from session state to a [Frame] that lists
// every visible element with its screen rectangle. [Stage] keeps a retained
// node tree in sync with the latest Frame and routes clicks, double taps and
// drags on its nodes back to the Controller:
//
//	scene := sticker.NewScene()
//	ctrl := sticker.NewController(sticker.ControllerOptions{ ... })
//	stage := sticker.NewStage(scene, ctrl, cache, font, sticker.DefaultLayout(), log)
//	ctrl.SetRenderer(stage.Snapshotter())
//
// Then call [Scene.Update] and [Scene.Draw] from an [ebiten.Game].
//
// # Scene graph
//
// Every visual element is a [Node]. Nodes form a tree rooted at
// [Scene.Root]. Children inherit their parent's transform and alpha, and
// ZIndex orders siblings for both drawing and hit testing. Create nodes with
// [NewContainer], [NewSprite], [NewRect] and [NewText].
//
// Scripted runs ([LoadTestScript]) and the Inject* methods drive the same
// pointer state machine as real mouse and touch input.
//
// Session events can be mirrored into a Donburi world through the
// sticker/ecs package.
//
// [Ebitengine]: https://ebitengine.org
package sticker
