package sim

import (
	"github.com/san-kum/episim/internal/history"
)

// StableSteps is how many consecutive steps without exposed or infectious
// agents trigger an auto-stop.
const StableSteps = 10

// Observer is notified after every committed step.
type Observer interface {
	OnStep(row history.Row)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(row history.Row)

func (f ObserverFunc) OnStep(row history.Row) { f(row) }

// Change describes what a parameter update did to the timeline.
type Change int

const (
	NoChange Change = iota
	// Updated means the new values apply from the next step, history intact.
	Updated
	// Reinitialized means population and history were rebuilt.
	Reinitialized
	// Branched means the timeline was forked at the viewed step.
	Branched
	// BranchedWithVaccination is Branched plus a fresh vaccine assignment.
	BranchedWithVaccination
)

func (c Change) String() string {
	switch c {
	case NoChange:
		return "none"
	case Updated:
		return "updated"
	case Reinitialized:
		return "reinitialized"
	case Branched:
		return "branched"
	case BranchedWithVaccination:
		return "branched+vaccination"
	default:
		return "unknown"
	}
}

type Result struct {
	Rows       []history.Row
	Metrics    map[string]float64
	StepsTaken int
	Halted     bool
}
