package tracelog

import (
	"sync/atomic"
)

// State holds the runtime counters of a listener. Counters are atomics so
// Stats can be read without taking the write lock.
type State struct {
	LinesWritten  atomic.Uint64 // Lines passed through the formatted path
	BytesWritten  atomic.Uint64 // Bytes handed to the file writer, after encoding
	Opens         atomic.Uint64 // Successful file opens, including reopens
	Rotations     atomic.Uint64 // Rotations of any kind
	Renames       atomic.Uint64 // Rotations that moved the file to .LNN
	Resets        atomic.Uint64 // Rotations that trimmed the file in place
	Deletions     atomic.Uint64 // Files removed by the cleanup sweep
	WriteFailures atomic.Uint64 // Writes that dropped the handle
	OpenFailures  atomic.Uint64 // Failed open attempts
}

// snapshot copies the counters into a Stats value
func (s *State) snapshot(filename string) Stats {
	return Stats{
		Filename:      filename,
		LinesWritten:  s.LinesWritten.Load(),
		BytesWritten:  s.BytesWritten.Load(),
		Opens:         s.Opens.Load(),
		Rotations:     s.Rotations.Load(),
		Renames:       s.Renames.Load(),
		Resets:        s.Resets.Load(),
		Deletions:     s.Deletions.Load(),
		WriteFailures: s.WriteFailures.Load(),
		OpenFailures:  s.OpenFailures.Load(),
	}
}
