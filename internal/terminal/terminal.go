// Package terminal holds the interactive surface of the CLI: huh forms with
// an accessible line-based fallback, a progress spinner, and the interview
// driver's UI.
package terminal

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a form
var ErrCancelled = stderrors.New("cancelled by user")

// Terminal reads answers from in and writes to out
type Terminal struct {
	in          io.Reader
	out         io.Writer
	status      io.Writer
	accessible  bool
	interactive bool
}

// New creates a Terminal. Forms fall back to accessible mode when accessible
// is set or in is not a TTY.
func New(in io.Reader, out io.Writer, accessible bool) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		status:      out,
		accessible:  accessible,
		interactive: isTerminal(in),
	}
}

// isTerminal reports whether v is a file attached to a TTY
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether a person can answer prompts
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Out returns the writer output goes to
func (t *Terminal) Out() io.Writer {
	return t.out
}

// Printf writes formatted output
func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...) //nolint:errcheck
}

// Println writes a line of output
func (t *Terminal) Println(args ...any) {
	fmt.Fprintln(t.out, args...) //nolint:errcheck
}

// StatusTo sends spinner output to w, keeping the main output clean for
// results that may be piped
func (t *Terminal) StatusTo(w io.Writer) *Terminal {
	t.status = w
	return t
}

// Spin starts a spinner on the status output when it is a terminal
func (t *Terminal) Spin(message string) (stop func()) {
	return Start(t.status, message, isTerminal(t.status))
}

// run shows a form built from groups
func (t *Terminal) run(ctx context.Context, groups ...*huh.Group) error {
	form := huh.NewForm(groups...).
		WithInput(t.in).
		WithOutput(t.out).
		WithShowHelp(true)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if t.accessible || !t.interactive {
		form = form.WithAccessible(true)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return err
	}
	return nil
}

// Confirm asks a yes/no question
func (t *Terminal) Confirm(ctx context.Context, title string, initial bool) (bool, error) {
	answer := initial
	err := t.run(ctx, huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&answer),
	))
	return answer, err
}

// Input asks for one line of text; required inputs reject blank values
func (t *Terminal) Input(ctx context.Context, title string, required bool) (string, error) {
	var value string
	err := t.run(ctx, huh.NewGroup(
		huh.NewInput().
			Title(title).
			Value(&value).
			Validate(func(s string) error {
				if required {
					return notBlank(s)
				}
				return nil
			}),
	))
	return value, err
}
