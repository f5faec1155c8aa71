// Package console prints progress lines for interactive runs.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	infoSymbol    = "→"
	successSymbol = "✓"
	warnSymbol    = "!"
	errorSymbol   = "✗"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD75F"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
)

// Printer writes one symbol-prefixed line per message. Styling is only
// applied when the destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
}

// New returns a Printer for w, styled if w is a terminal.
func New(w io.Writer) *Printer {
	return &Printer{w: w, styled: isTerminal(w)}
}

// Stdout returns a Printer for standard output.
func Stdout() *Printer {
	return New(os.Stdout)
}

// Info prints a neutral progress line.
func (p *Printer) Info(msg string) {
	p.print(infoStyle, infoSymbol, msg, false)
}

// Success prints a completed step.
func (p *Printer) Success(msg string) {
	p.print(successStyle, successSymbol, msg, false)
}

// Warn prints a step that finished without a usable result.
func (p *Printer) Warn(msg string) {
	p.print(warnStyle, warnSymbol, msg, false)
}

// Error prints a failure. The message itself is styled as well.
func (p *Printer) Error(msg string) {
	p.print(errorStyle, errorSymbol, msg, true)
}

func (p *Printer) print(style lipgloss.Style, symbol, msg string, styleMsg bool) {
	if !p.styled {
		_, _ = fmt.Fprintf(p.w, "%s %s\n", symbol, msg)

		return
	}

	if styleMsg {
		msg = style.Render(msg)
	}

	_, _ = fmt.Fprintf(p.w, "%s %s\n", style.Render(symbol), msg)
}

type fder interface {
	Fd() uintptr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
