// Package viz provides the interactive terminal view of a running epidemic.
//
// The package implements a TUI using the Bubble Tea framework:
//
//   - [Model]: the live view driving a [sim.Simulator] one step per tick
//   - [RenderGrid]: the agent lattice drawn with half-block cells
//   - Theme selection with built-in colour schemes
//
// # Key Bindings
//
//	Space - Pause/Resume (resuming a past step forks from it)
//	[ ]   - Step the view back/forward through history
//	{ }   - Jump the view ten steps
//	B     - Fork the timeline at the viewed step
//	V     - Fork and reassign vaccination
//	Tab   - Cycle parameters, Up/Down to edit
//	C S A - Toggle contacts, stochastic mode, auto-stop
//	P     - Next scenario preset
//	R     - Reset
//	T     - Cycle colour themes
//	?     - Show help overlay
package viz
