package ecs

import (
	"github.com/phanxgames/sticker"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SessionEventType is the Donburi event type for sticker session events.
var SessionEventType = events.NewEventType[sticker.SessionEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// queued on SessionEventType and delivered by ProcessEvents.
func NewDonburiSink(world donburi.World) sticker.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event sticker.SessionEvent) {
	SessionEventType.Publish(s.world, event)
}

// Activity is the component kept by the activity log entity.
type Activity struct {
	Limit   int
	Recent  []sticker.SessionEvent // oldest first, at most Limit entries
	Counts  map[sticker.SessionEventKind]int
	Exports []string // paths of successful exports
}

// ActivityComponent holds an Activity.
var ActivityComponent = donburi.NewComponentType[Activity]()

// NewActivityLog creates an entity carrying an Activity and subscribes it to
// SessionEventType. log may be nil.
func NewActivityLog(world donburi.World, log *logrus.Entry, limit int) donburi.Entity {
	if limit <= 0 {
		limit = 32
	}
	entity := world.Create(ActivityComponent)
	ActivityComponent.SetValue(world.Entry(entity), Activity{
		Limit:  limit,
		Counts: make(map[sticker.SessionEventKind]int),
	})

	SessionEventType.Subscribe(world, func(w donburi.World, e sticker.SessionEvent) {
		if !w.Valid(entity) {
			return
		}
		ActivityComponent.Get(w.Entry(entity)).record(e)
		if log != nil {
			fields := logrus.Fields{"event": e.Kind, "phase": e.Phase}
			if e.Err != nil {
				fields["error"] = e.Err.Error()
			}
			log.WithFields(fields).Debug("activity")
		}
	})
	return entity
}

// ActivityOf returns the Activity of an activity log entity.
func ActivityOf(world donburi.World, entity donburi.Entity) *Activity {
	return ActivityComponent.Get(world.Entry(entity))
}

func (a *Activity) record(e sticker.SessionEvent) {
	a.Counts[e.Kind]++
	if e.Kind == sticker.SessionExported {
		a.Exports = append(a.Exports, e.Path)
	}
	a.Recent = append(a.Recent, e)
	if over := len(a.Recent) - a.Limit; over > 0 {
		a.Recent = append(a.Recent[:0], a.Recent[over:]...)
	}
}
