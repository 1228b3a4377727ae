// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package app

// State is a lifecycle phase of the process.
type State int32

const (
	StateStarting State = iota
	StateListening
	StateAborted
	StateFatalShutdown
	StateGracefulShutdown
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateAborted:
		return "aborted"
	case StateFatalShutdown:
		return "fatal-shutdown"
	case StateGracefulShutdown:
		return "graceful-shutdown"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the process.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateFatalShutdown || s == StateGracefulShutdown
}

// ExitCode is the process exit status for a terminal state.
func (s State) ExitCode() int {
	if s == StateGracefulShutdown {
		return 0
	}
	return 1
}
