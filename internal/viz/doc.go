// Package viz renders reaction networks and trajectories in the terminal.
//
// Static output uses lipgloss for styled reports and tables and asciigraph
// for time-series plots. [Live] is a Bubble Tea program that follows a
// running integration:
//
//	Space     - Pause/Resume the integration
//	Tab/J/K   - Select the plotted compound
//	T         - Cycle colour themes
//	?         - Show help overlay
//	Q         - Quit and cancel the run
//
// Pausing stops consuming states, which blocks the integrating goroutine
// until the view resumes.
package viz
