package tracelog

import (
	"strings"
)

// RotationAction selects what happens when the trace file outgrows MaxFileSize
type RotationAction int

const (
	// ActionNothing closes the file and reopens it under its resolved name
	ActionNothing RotationAction = iota
	// ActionResetSize keeps the tail SavedPercent of the file in place
	ActionResetSize
	// ActionRename moves the file to the next free .LNN name and starts a fresh one
	ActionRename
)

// rotationActions maps lower-cased configuration names to actions
var rotationActions = map[string]RotationAction{
	"nothing":   ActionNothing,
	"none":      ActionNothing,
	"resetsize": ActionResetSize,
	"reset":     ActionResetSize,
	"rename":    ActionRename,
}

// String returns the configuration name of the action
func (a RotationAction) String() string {
	switch a {
	case ActionResetSize:
		return "ResetSize"
	case ActionRename:
		return "Rename"
	default:
		return "Nothing"
	}
}

// ParseRotationAction looks up an action by name, case-insensitively.
// Unknown names return ActionNothing and false.
func ParseRotationAction(name string) (RotationAction, bool) {
	a, ok := rotationActions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ActionNothing, false
	}
	return a, true
}

// Stats is a point-in-time snapshot of listener counters
type Stats struct {
	Filename      string
	LinesWritten  uint64
	BytesWritten  uint64
	Opens         uint64
	Rotations     uint64
	Renames       uint64
	Resets        uint64
	Deletions     uint64
	WriteFailures uint64
	OpenFailures  uint64
}
