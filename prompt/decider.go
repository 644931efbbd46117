package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/snapshot"
)

// ErrNoAnswer is returned when input ends before a question is answered.
var ErrNoAnswer = errors.New("no answer on input")

// Decider asks version bump and removal questions on a terminal.
type Decider struct {
	in       *bufio.Reader
	out      io.Writer
	renderer *Renderer
}

var (
	_ freeze.Decider        = (*Decider)(nil)
	_ freeze.RemovalDecider = (*Decider)(nil)
)

// NewDecider creates a decider reading answers from in and writing
// questions to out. A nil renderer uses the embedded templates.
func NewDecider(in io.Reader, out io.Writer, renderer *Renderer) *Decider {
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &Decider{in: bufio.NewReader(in), out: out, renderer: renderer}
}

// ConfirmVersionBump shows the field diff and asks whether to increment.
func (d *Decider) ConfirmVersionBump(ctx context.Context, a *artifact.Artifact, prev snapshot.Record, diff []freeze.FieldDiff) (bool, error) {
	data := struct {
		Name    string
		Version int
		Diff    []freeze.FieldDiff
	}{a.DisplayName(), prev.Version, diff}
	if err := d.renderer.Execute(d.out, BumpTemplate, data); err != nil {
		return false, err
	}
	return d.ask(ctx, fmt.Sprintf("Increment the version of %s from %d to %d?", a.DisplayName(), prev.Version, prev.Version+1))
}

// ConfirmRemoval asks whether a vanished artifact leaves the store.
func (d *Decider) ConfirmRemoval(ctx context.Context, prev snapshot.Record) (bool, error) {
	return d.ask(ctx, fmt.Sprintf("%s no longer exists. Drop it from the store?", prev.DisplayName()))
}

// ask repeats the question until it reads yes or no.
func (d *Decider) ask(ctx context.Context, question string) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "%s [y/n]: ", question)

		line, err := d.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			fmt.Fprintln(d.out)
			if errors.Is(err, io.EOF) {
				return false, ErrNoAnswer
			}
			return false, fmt.Errorf("read answer: %w", err)
		}
		fmt.Fprintln(d.out, "Please answer y or n.")
	}
}
