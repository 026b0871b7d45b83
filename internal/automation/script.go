package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/sim"
)

// Script is a scripted timeline: a base configuration followed by actions
// executed in order against one simulator.
type Script struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Config      *yaml.Node `yaml:"config"`
	Actions     []Action   `yaml:"actions"`
}

// Action is a single timeline operation. Exactly one field must be set.
type Action struct {
	// Run steps n times, branching first if the view is frozen.
	Run int `yaml:"run,omitempty"`
	// Set overlays config keys and applies them as a live parameter edit.
	Set *yaml.Node `yaml:"set,omitempty"`
	// View freezes the view at a step index.
	View *int `yaml:"view,omitempty"`
	// Live returns the view to the latest step.
	Live bool `yaml:"live,omitempty"`
	// Branch forks at the viewed step.
	Branch *BranchAction `yaml:"branch,omitempty"`
	// Fork forks at an explicit step index.
	Fork *ForkAction `yaml:"fork,omitempty"`
}

type BranchAction struct {
	ReassignVaccination bool `yaml:"reassign_vaccination"`
}

type ForkAction struct {
	Index               int  `yaml:"index"`
	ReassignVaccination bool `yaml:"reassign_vaccination"`
}

var ErrInvalidAction = errors.New("action must set exactly one of run, set, view, live, branch, fork")

func (a Action) kind() (string, error) {
	kinds := make([]string, 0, 1)
	if a.Run > 0 {
		kinds = append(kinds, "run")
	}
	if a.Set != nil {
		kinds = append(kinds, "set")
	}
	if a.View != nil {
		kinds = append(kinds, "view")
	}
	if a.Live {
		kinds = append(kinds, "live")
	}
	if a.Branch != nil {
		kinds = append(kinds, "branch")
	}
	if a.Fork != nil {
		kinds = append(kinds, "fork")
	}
	if len(kinds) != 1 {
		return "", ErrInvalidAction
	}
	return kinds[0], nil
}

// Event records the timeline after one action.
type Event struct {
	Action  int
	Kind    string
	Change  sim.Change
	Steps   int
	Time    float64
	Viewing bool
}

type ScriptResult struct {
	Config    *config.Config
	Simulator *sim.Simulator
	Events    []Event
}

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	for i, a := range script.Actions {
		if _, err := a.kind(); err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
	}
	return &script, nil
}

// RunScript executes every action in order. Progress lines go to out,
// which may be nil.
func RunScript(ctx context.Context, script *Script, out io.Writer) (*ScriptResult, error) {
	if out == nil {
		out = io.Discard
	}

	cfg := config.DefaultConfig()
	if err := cfg.Merge(script.Config); err != nil {
		return nil, fmt.Errorf("script config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("script config: %w", err)
	}

	s := sim.New(cfg.Sim())
	res := &ScriptResult{Config: cfg, Simulator: s, Events: make([]Event, 0, len(script.Actions))}

	for i, a := range script.Actions {
		kind, err := a.kind()
		if err != nil {
			return res, fmt.Errorf("action %d: %w", i+1, err)
		}

		ev := Event{Action: i + 1, Kind: kind}
		switch kind {
		case "run":
			if s.Resume() {
				ev.Change = sim.Branched
			}
			if _, err := s.Run(ctx, a.Run); err != nil {
				return res, fmt.Errorf("action %d: %w", i+1, err)
			}
		case "set":
			next := *cfg
			if err := next.Merge(a.Set); err != nil {
				return res, fmt.Errorf("action %d: %w", i+1, err)
			}
			if err := next.Validate(); err != nil {
				return res, fmt.Errorf("action %d: %w", i+1, err)
			}
			ev.Change = s.UpdateParams(next.Sim())
			*cfg = next
		case "view":
			s.SetView(*a.View)
		case "live":
			s.ViewLive()
		case "branch":
			if s.Branch(a.Branch.ReassignVaccination) {
				ev.Change = sim.Branched
				if a.Branch.ReassignVaccination {
					ev.Change = sim.BranchedWithVaccination
				}
			}
		case "fork":
			if err := s.Fork(a.Fork.Index, a.Fork.ReassignVaccination); err != nil {
				return res, fmt.Errorf("action %d: %w", i+1, err)
			}
			ev.Change = sim.Branched
			if a.Fork.ReassignVaccination {
				ev.Change = sim.BranchedWithVaccination
			}
		}

		ev.Steps = s.History().Len()
		ev.Time = s.Time()
		_, ev.Viewing = s.History().View()
		res.Events = append(res.Events, ev)

		fmt.Fprintf(out, "Action %d/%d: %s (%s), %d steps, t=%.1f\n",
			i+1, len(script.Actions), kind, ev.Change, ev.Steps, ev.Time)
	}

	return res, nil
}
