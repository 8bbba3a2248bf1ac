package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/vijay-prabhu/mailsplit/internal/ingest"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// Spinner frames for animated progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Terminal writes progress lines, redrawing in place on a TTY
type Terminal struct {
	IsTerminal   bool
	UseColor     bool
	out          io.Writer
	spinnerIndex int
	lastPhase    ingest.Phase
}

// NewTerminal creates a Terminal writing to stderr, so piped stdout only
// carries results
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal,
		out:        os.Stderr,
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Fprint(t.out, "\r\033[K")
	}
}

// Spinner returns the next spinner frame
func (t *Terminal) Spinner() string {
	if !t.IsTerminal {
		return ""
	}
	frame := spinnerFrames[t.spinnerIndex]
	t.spinnerIndex = (t.spinnerIndex + 1) % len(spinnerFrames)
	return frame
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// Progress draws one ingest progress update. Off a terminal it prints a line
// per phase change and every 50 items.
func (t *Terminal) Progress(p ingest.Progress) {
	msg := progressMessage(p, t.Spinner())

	if t.IsTerminal {
		t.ClearLine()
		fmt.Fprint(t.out, t.Color(PhaseColor(p.Phase), msg))
	} else if p.Phase != t.lastPhase || p.Current%50 == 0 || p.Current == p.Total {
		fmt.Fprintln(t.out, msg)
	}
	t.lastPhase = p.Phase
}

// Done clears the progress line
func (t *Terminal) Done() {
	t.ClearLine()
}

func progressMessage(p ingest.Progress, spinner string) string {
	var eta string
	if d := p.ETA(); d > 0 {
		eta = fmt.Sprintf(" (ETA: %s)", FormatETA(d))
	}

	if p.Total == 0 {
		return fmt.Sprintf("%s %s...", spinner, p.Description)
	}
	return fmt.Sprintf("%s: %d/%d (%d%%)%s", p.Description, p.Current, p.Total, p.Percentage(), eta)
}

// FormatETA formats a duration as a human-readable ETA string
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// PhaseColor returns the color for an ingest phase
func PhaseColor(phase ingest.Phase) string {
	switch phase {
	case ingest.PhaseScanning:
		return ColorCyan
	case ingest.PhaseFetching:
		return ColorBlue
	case ingest.PhaseStoring:
		return ColorGreen
	default:
		return ColorWhite
	}
}
