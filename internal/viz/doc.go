// Package viz provides terminal presentation for render runs.
//
// It contains:
//
//   - lipgloss styles shared by the CLI and the progress view
//   - [Summary]: a boxed overview of the run parameters
//   - [Canvas]: a Braille canvas used for a coarse density preview
//   - [MassPlot]: an asciigraph chart of total mass per frame
//
// Nothing in this package writes to the terminal directly; every function
// returns a string.
package viz
