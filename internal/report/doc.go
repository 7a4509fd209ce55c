// Package report records what happened to every file in a run.
//
// A Reporter is shared by all workers. Each Add appends one Outcome, writes
// it as a JSON line to the run artifact and syncs the file, then prints a
// coloured console line. Summary totals the outcomes for the closing table.
package report
