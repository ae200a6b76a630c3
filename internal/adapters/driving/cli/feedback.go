package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Interactive reports whether a human can answer feedback prompts.
// Without a terminal on both ends the orchestrator gets no feedback
// channel and suspends instead of blocking.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalFeedback collects refinement decisions from a terminal.
type TerminalFeedback struct {
	in  *bufio.Reader
	out io.Writer
}

var _ driven.FeedbackChannel = (*TerminalFeedback)(nil)

// NewTerminalFeedback creates a feedback channel reading from in and
// writing to out. Pass os.Stdin and os.Stdout for normal use.
func NewTerminalFeedback(in io.Reader, out io.Writer) *TerminalFeedback {
	return &TerminalFeedback{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Present shows the current document set to the analyst.
func (t *TerminalFeedback) Present(_ context.Context, docs []domain.Document, commentary []string) error {
	fmt.Fprintf(t.out, "\nRetrieved guidance:\n\n")
	for i, doc := range docs {
		title := doc.Section
		if title == "" {
			title = doc.Source
		}
		fmt.Fprintf(t.out, "  [%d] %s (%.2f)\n", i+1, title, doc.Score)
		fmt.Fprintf(t.out, "      Source: %s [%s]\n", doc.Source, doc.PartitionID)
		if i < len(commentary) && commentary[i] != "" {
			fmt.Fprintf(t.out, "      Note: %s\n", commentary[i])
		}
		fmt.Fprintf(t.out, "      %s\n\n", snippet(doc.Content, 160))
	}
	fmt.Fprint(t.out, "Decision [accept / select 1-3,5 / requery <keywords> / partition <ids> / web / cancel]: ")
	return nil
}

// Decision blocks until the analyst supplies one decision.
func (t *TerminalFeedback) Decision(ctx context.Context) (domain.FeedbackDecision, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return domain.FeedbackDecision{}, ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return domain.FeedbackDecision{}, r.err
		}
		return parseDecision(r.line), nil
	}
}

// parseDecision turns a free-text answer into a feedback decision.
// Unrecognised text is treated as extra search keywords rather than
// rejected, so an analyst can just type what is missing.
func parseDecision(line string) domain.FeedbackDecision {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}
	}

	verb, rest := fields[0], fields[1:]
	switch verb {
	case "a", "y", "ok", "accept", "accept_all", "keep":
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}

	case "s", "select", "select_partial":
		if indices, err := parseIndexRanges(strings.Join(rest, ",")); err == nil {
			return domain.FeedbackDecision{Action: domain.FeedbackSelectPartial, Indices: indices}
		}
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}

	case "k", "r", "requery", "requery_keyword", "more":
		if len(rest) > 0 {
			return domain.FeedbackDecision{Action: domain.FeedbackRequeryKeyword, Keywords: rest}
		}
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}

	case "p", "partition", "requery_partition":
		if len(rest) > 0 {
			return domain.FeedbackDecision{Action: domain.FeedbackRequeryPartition, Partitions: rest}
		}
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}

	case "w", "web", "escalate", "escalate_web":
		return domain.FeedbackDecision{Action: domain.FeedbackEscalateWeb}

	case "c", "q", "quit", "cancel":
		return domain.FeedbackDecision{Action: domain.FeedbackCancel}
	}

	// Bare positions like "1-3,5" mean selection.
	if indices, err := parseIndexRanges(strings.Join(fields, ",")); err == nil {
		return domain.FeedbackDecision{Action: domain.FeedbackSelectPartial, Indices: indices}
	}

	// Anything else becomes additional keywords.
	return domain.FeedbackDecision{Action: domain.FeedbackRequeryKeyword, Keywords: fields}
}
