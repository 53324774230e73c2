// Package ecs bridges sticker session events into a Donburi world.
//
// [NewDonburiSink] publishes every [sticker.SessionEvent] on
// [SessionEventType]. [NewActivityLog] adds an entity that records the most
// recent events and logs them as they are processed.
//
// Usage:
//
//	world := donburi.NewWorld()
//	ctrl.SetEventSink(ecs.NewDonburiSink(world))
//	ecs.NewActivityLog(world, log, 32)
//	// once per frame:
//	events.ProcessAllEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
