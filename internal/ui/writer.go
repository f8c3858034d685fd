package ui

import (
	"fmt"
	"io"
)

// Writer prints status lines for CLI commands. Write errors are ignored;
// this is console output.
type Writer struct {
	out    io.Writer
	styles Styles
}

// NewWriter creates a Writer styled for out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, styles: StylesFor(out)}
}

// NewWriterWithStyles creates a Writer with explicit styles.
func NewWriterWithStyles(out io.Writer, styles Styles) *Writer {
	return &Writer{out: out, styles: styles}
}

// Styles returns the writer's styles.
func (w *Writer) Styles() Styles { return w.styles }

// Successf prints a success line.
func (w *Writer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warningf prints a warning line.
func (w *Writer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (w *Writer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Statusf prints an indented informational line.
func (w *Writer) Statusf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, "  "+fmt.Sprintf(format, args...))
}

// Print writes pre-rendered text as is.
func (w *Writer) Print(s string) {
	_, _ = io.WriteString(w.out, s)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
