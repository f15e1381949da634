// Package printer renders user-facing console output. It is distinct from
// the zerolog logger: the logger narrates execution for debugging, the
// printer produces the output the user asked for.
package printer

import (
	"context"
	"fmt"
	"io"

	"github.com/jobflow-cli/jobflow/pkgs/styles"
)

type Printer struct {
	writer io.Writer
	base   styles.RenderFunc
	light  styles.RenderFunc
}

func New(w io.Writer) *Printer {
	return &Printer{
		writer: w,
		base:   styles.Bold,
		light:  styles.Subtle,
	}
}

// Ctx returns a printer bound to the writer stored in the context, falling
// back to the receiver's writer when none is set.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	w, ok := GetWriter(ctx)
	if !ok {
		return p
	}

	return &Printer{
		writer: w,
		base:   p.base,
		light:  p.light,
	}
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.writer, s)
}

func (p *Printer) FatalError(err error) {
	p.println(styles.ErrorBox("Fatal Error", err.Error()))
}

func (p *Printer) Title(title string) {
	p.println(p.base(title))
}

// List renders a titled bullet list.
func (p *Printer) List(title string, items []string) {
	p.Title(title)
	for _, item := range items {
		p.println(p.light(styles.Dot + " " + item))
	}
}

type StatusListItem struct {
	Ok     bool
	Status string
}

// StatusList renders a titled list with a pass/fail marker per item.
func (p *Printer) StatusList(title string, items []StatusListItem) {
	p.Title(title)
	for _, item := range items {
		if item.Ok {
			p.println(styles.Success(styles.Check + " " + item.Status))
			continue
		}

		p.println(styles.Padding(styles.Error(styles.Cross + " " + item.Status)))
	}
}
