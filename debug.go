package sticker

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// debugLog receives tree warnings from node operations, which have no Scene
// pointer. Scene.SetLogger points it at the scene's logger.
var debugLog = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "scene")

// debugStats holds per-frame timing and draw-call metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	traverseTime time.Duration
	sortTime     time.Duration
	submitTime   time.Duration
	commandCount int
}

// debugLogStats logs timing and draw-call stats at debug level.
func (s *Scene) debugLogStats(stats debugStats) {
	if !s.debug {
		return
	}
	s.log.WithFields(logrus.Fields{
		"traverse": stats.traverseTime,
		"sort":     stats.sortTime,
		"submit":   stats.submitTime,
		"total":    stats.traverseTime + stats.sortTime + stats.submitTime,
		"commands": stats.commandCount,
	}).Debug("frame stats")
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Release builds skip the check entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("sticker debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if tree depth exceeds debugMaxTreeDepth.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugLog.WithFields(logrus.Fields{
			"node":  n.Name,
			"depth": depth,
			"limit": debugMaxTreeDepth,
		}).Warn("tree depth exceeds limit")
	}
}
