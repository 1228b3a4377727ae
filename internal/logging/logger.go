// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	clog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// L is the package-level logger. Callers should use the helper functions
// below rather than holding on to L, since Setup replaces it.
var L = clog.New(os.Stderr)

// Setup configures L for the given diagnostic level and environment.
// Production output and non-terminal writers get JSON lines; an interactive
// terminal gets the colored text formatter.
func Setup(level, env string, w io.Writer) {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(level),
	})
	if env == "production" || !isTerminal(w) {
		l.SetFormatter(clog.JSONFormatter)
	} else {
		l.SetStyles(levelStyles())
	}
	L = l
}

// ParseLevel maps a level name to a charmbracelet level. Unknown names
// resolve to info.
func ParseLevel(level string) clog.Level {
	lv, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return clog.InfoLevel
	}
	return lv
}

// Named returns a child logger tagged with a component prefix.
func Named(component string) *clog.Logger {
	return L.WithPrefix(component)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func levelStyles() *clog.Styles {
	s := clog.DefaultStyles()
	s.Levels[clog.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("204"))
	s.Levels[clog.FatalLevel] = lipgloss.NewStyle().SetString("FATAL").Bold(true).Foreground(lipgloss.Color("134"))
	s.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	return s
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}
