// Package agent runs the interactive loop: pick a source, analyze it, then
// answer follow-up requests until the user goes back or exits.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/pders01/blueprint/internal/pipeline"
	"github.com/pders01/blueprint/internal/report"
	"github.com/pders01/blueprint/internal/session"
)

// State of the loop
type State int

const (
	SourceSelection State = iota
	Processing
	FollowUp
	Done
)

func (s State) String() string {
	switch s {
	case SourceSelection:
		return "source-selection"
	case Processing:
		return "processing"
	case FollowUp:
		return "follow-up"
	default:
		return "done"
	}
}

// Processor analyzes a source and records the result
type Processor interface {
	Process(ctx context.Context, input string) (*pipeline.Outcome, error)
	Record(ctx context.Context, out *pipeline.Outcome) (string, error)
}

const (
	sourcePrompt   = `Enter a YouTube URL, a GitHub repository URL or a local directory (or "exit" to quit): `
	followUpPrompt = `Ask a follow-up question or request a refinement ("back" for a new source, "exit" to quit): `
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// input is one line read from the user, or the end of input
type input struct {
	line string
	eof  bool
}

// Agent is the REPL state machine. Lines are read by a single goroutine
// and queued; the loop consumes them one at a time.
type Agent struct {
	proc    Processor
	session *session.Session
	in      io.Reader
	out     io.Writer
	logger  *log.Logger

	// Width is the wrap width for rendered Markdown
	Width int

	state   State
	pending string
}

// New creates an agent reading from in and writing to out
func New(proc Processor, sess *session.Session, in io.Reader, out io.Writer, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Agent{
		proc:    proc,
		session: sess,
		in:      in,
		out:     out,
		logger:  logger,
		Width:   80,
		state:   SourceSelection,
	}
}

// State returns the current state
func (a *Agent) State() State {
	return a.state
}

// Run drives the loop until the user exits, input ends, or ctx is
// cancelled. Per-source failures are reported and the loop continues.
func (a *Agent) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	events := a.read(done)

	fmt.Fprintln(a.out, titleStyle.Render("Welcome to blueprint!"))

	for a.state != Done {
		switch a.state {
		case SourceSelection:
			fmt.Fprint(a.out, "\n"+sourcePrompt)
			ev, err := next(ctx, events)
			if err != nil {
				return err
			}
			a.selectSource(ev)

		case Processing:
			a.process(ctx)

		case FollowUp:
			fmt.Fprint(a.out, "\n"+followUpPrompt)
			ev, err := next(ctx, events)
			if err != nil {
				return err
			}
			a.followUp(ctx, ev)
		}
	}

	fmt.Fprintln(a.out, "\nGoodbye!")
	return nil
}

func (a *Agent) transition(to State) {
	a.logger.Debug("state change", "from", a.state, "to", to)
	a.state = to
}

func (a *Agent) selectSource(ev input) {
	if ev.eof {
		a.transition(Done)
		return
	}

	switch session.ParseCommand(ev.line) {
	case session.CommandExit:
		a.transition(Done)
	case session.CommandEmpty:
	case session.CommandBack:
		fmt.Fprintln(a.out, dimStyle.Render("Nothing to go back to."))
	default:
		a.pending = strings.TrimSpace(ev.line)
		a.transition(Processing)
	}
}

func (a *Agent) process(ctx context.Context) {
	input := a.pending
	a.pending = ""

	fmt.Fprintln(a.out, dimStyle.Render("Fetching and analyzing "+input+" ..."))
	out, err := a.proc.Process(ctx, input)
	if err != nil {
		a.printError("Analysis failed", err)
		a.transition(SourceSelection)
		return
	}

	for _, w := range out.Warnings {
		fmt.Fprintln(a.out, warnStyle.Render("Warning: "+w))
	}

	prompts := report.DerivePrompts(out.Blueprint)
	md, err := report.Markdown(report.Meta{Kind: out.Target.Kind, Source: input, Identifier: out.Target.Identifier}, out.Blueprint, prompts)
	if err == nil {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, report.Terminal(md, a.Width))
	}

	path, err := a.proc.Record(ctx, out)
	if err != nil {
		fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		fmt.Fprintf(a.out, "\nBlueprint saved to %s\n", path)
	}

	if err := a.session.Activate(out.Blob, out.Blueprint); err != nil {
		a.printError("Follow-up unavailable", err)
		a.transition(SourceSelection)
		return
	}
	a.transition(FollowUp)
}

func (a *Agent) followUp(ctx context.Context, ev input) {
	if ev.eof {
		a.session.Reset()
		a.transition(Done)
		return
	}

	switch session.ParseCommand(ev.line) {
	case session.CommandBack:
		a.session.Reset()
		a.transition(SourceSelection)
	case session.CommandExit:
		a.session.Reset()
		a.transition(Done)
	case session.CommandEmpty:
	default:
		answer, err := a.session.Answer(ctx, ev.line)
		if err != nil {
			a.printError("Error answering follow-up", err)
			return
		}
		fmt.Fprintln(a.out, "\n"+titleStyle.Render("Follow-up answer:"))
		fmt.Fprintln(a.out, report.Terminal(answer, a.Width))
	}
}

func (a *Agent) printError(prefix string, err error) {
	a.logger.Debug("request failed", "kind", pipeline.Kind(err), "err", err)
	fmt.Fprintln(a.out, errStyle.Render(fmt.Sprintf("%s (%s): %v", prefix, pipeline.Kind(err), err)))
}

// read queues input lines until EOF or until done is closed
func (a *Agent) read(done <-chan struct{}) <-chan input {
	events := make(chan input, 16)

	go func() {
		defer close(events)
		scanner := bufio.NewScanner(a.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case events <- input{line: scanner.Text()}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			a.logger.Warn("failed to read input", "err", err)
		}
		select {
		case events <- input{eof: true}:
		case <-done:
		}
	}()

	return events
}

func next(ctx context.Context, events <-chan input) (input, error) {
	select {
	case <-ctx.Done():
		return input{}, ctx.Err()
	case ev, ok := <-events:
		if !ok {
			return input{eof: true}, nil
		}
		return ev, nil
	}
}
