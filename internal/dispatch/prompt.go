package dispatch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Decision is an answer to a convert conflict.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionConvert
	DecisionSkipAll
	DecisionConvertAll
)

// Prompter asks the operator how to handle a file that already has the
// target extension.
type Prompter interface {
	Confirm(rel, ext string) (Decision, error)
}

// TerminalPrompter reads answers from an interactive terminal.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter returns a prompter bound to in and out, or nil when in
// is not a terminal.
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	if in == nil || !(isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())) {
		return nil
	}
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints a question and reads y/n/a/s. Empty input means skip.
func (p *TerminalPrompter) Confirm(rel, ext string) (Decision, error) {
	for {
		fmt.Fprintf(p.out, "%s is already %s. Convert anyway? [y]es/[N]o/[a]ll/[s]kip all: ", rel, ext)
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return DecisionSkip, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "n", "no":
			return DecisionSkip, nil
		case "y", "yes":
			return DecisionConvert, nil
		case "a", "all":
			return DecisionConvertAll, nil
		case "s", "skip":
			return DecisionSkipAll, nil
		}
	}
}

// conflictGate serializes prompts across workers and remembers "all" answers.
type conflictGate struct {
	mu       sync.Mutex
	prompter Prompter
	sticky   *Decision
}

// resolve reports whether the file should be converted. ok is false when no
// prompter is available.
func (g *conflictGate) resolve(rel, ext string) (convert bool, ok bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sticky != nil {
		return *g.sticky == DecisionConvertAll, true, nil
	}
	if g.prompter == nil {
		return false, false, nil
	}
	decision, err := g.prompter.Confirm(rel, ext)
	if err != nil {
		return false, false, err
	}
	if decision == DecisionConvertAll || decision == DecisionSkipAll {
		g.sticky = &decision
	}
	return decision == DecisionConvert || decision == DecisionConvertAll, true, nil
}
