// Package viz renders MCERD runs in the terminal.
//
//   - [Monitor]: live Bubble Tea view of a running batch
//   - [PlotProfile]: ASCII plot of a recoil depth profile
//   - [Setup] and [Runs]: lipgloss summaries for the show and list commands
//
// # Key Bindings
//
//	q, ctrl+c - cancel the batch and quit
//	d         - toggle finished runs
package viz
