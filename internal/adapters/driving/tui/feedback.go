package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// FeedbackChannel drives the review screen once per refinement
// iteration. Present stores the set; Decision runs the program and
// blocks until the analyst chooses.
type FeedbackChannel struct {
	docs       []domain.Document
	commentary []string
}

var _ driven.FeedbackChannel = (*FeedbackChannel)(nil)

// NewFeedbackChannel creates a TUI-backed feedback channel.
func NewFeedbackChannel() *FeedbackChannel {
	return &FeedbackChannel{}
}

// Present stores the document set for the next Decision call. The
// screen itself is drawn by the review program, so nothing is rendered
// here.
func (f *FeedbackChannel) Present(_ context.Context, docs []domain.Document, commentary []string) error {
	f.docs = docs
	f.commentary = commentary
	return nil
}

// Decision runs the review screen and blocks until the analyst decides.
func (f *FeedbackChannel) Decision(ctx context.Context) (domain.FeedbackDecision, error) {
	model := NewReviewModel(f.docs, f.commentary)

	program := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.FeedbackDecision{}, ctx.Err()
		}
		return domain.FeedbackDecision{}, fmt.Errorf("running review screen: %w", err)
	}

	review, ok := final.(*ReviewModel)
	if !ok {
		return domain.FeedbackDecision{}, errors.New("unexpected review model type")
	}

	decision, ok := review.Decision()
	if !ok {
		// Program ended without an explicit choice (e.g. terminal
		// closed). Treat as cancel rather than guessing.
		return domain.FeedbackDecision{Action: domain.FeedbackCancel}, nil
	}
	return decision, nil
}
