// Package tui provides an interactive document review screen for the
// refinement loop, built on bubbletea.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hardhat-labs/girder-cli/internal/adapters/driving/tui/styles"
	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// inputMode says what the text input collects, when open.
type inputMode int

const (
	inputNone inputMode = iota
	inputKeywords
	inputPartitions
)

// ReviewModel presents retrieved documents and captures one feedback
// decision. The model quits as soon as a decision is made; the caller
// reads it with Decision.
type ReviewModel struct {
	docs       []domain.Document
	commentary []string
	cursor     int
	marked     map[int]bool
	mode       inputMode
	input      textinput.Model
	styles     *styles.Styles
	decision   *domain.FeedbackDecision
	width      int
}

// NewReviewModel creates a review model for the document set.
// Commentary entries align with docs by index and may be empty.
func NewReviewModel(docs []domain.Document, commentary []string) *ReviewModel {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 50

	return &ReviewModel{
		docs:       docs,
		commentary: commentary,
		marked:     make(map[int]bool),
		input:      ti,
		styles:     styles.DefaultStyles(),
		width:      80,
	}
}

// Init initialises the model.
func (m *ReviewModel) Init() tea.Cmd {
	return nil
}

// Update handles key messages.
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m *ReviewModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.docs)-1 {
			m.cursor++
		}

	case " ":
		m.marked[m.cursor] = !m.marked[m.cursor]

	case "a":
		return m.decide(domain.FeedbackDecision{Action: domain.FeedbackAcceptAll})

	case "enter":
		if len(m.markedIndices()) == 0 {
			return m.decide(domain.FeedbackDecision{Action: domain.FeedbackAcceptAll})
		}
		return m.decide(domain.FeedbackDecision{
			Action:  domain.FeedbackSelectPartial,
			Indices: m.markedIndices(),
		})

	case "r":
		m.mode = inputKeywords
		m.input.Placeholder = "extra keywords..."
		m.input.SetValue("")
		return m, m.input.Focus()

	case "p":
		m.mode = inputPartitions
		m.input.Placeholder = "partition ids..."
		m.input.SetValue("")
		return m, m.input.Focus()

	case "w":
		return m.decide(domain.FeedbackDecision{Action: domain.FeedbackEscalateWeb})

	case "c", "q", "esc", "ctrl+c":
		return m.decide(domain.FeedbackDecision{Action: domain.FeedbackCancel})
	}

	return m, nil
}

func (m *ReviewModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case "enter":
		terms := strings.Fields(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		if len(terms) == 0 {
			return m, nil
		}
		if mode == inputKeywords {
			return m.decide(domain.FeedbackDecision{Action: domain.FeedbackRequeryKeyword, Keywords: terms})
		}
		return m.decide(domain.FeedbackDecision{Action: domain.FeedbackRequeryPartition, Partitions: terms})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ReviewModel) decide(d domain.FeedbackDecision) (tea.Model, tea.Cmd) {
	m.decision = &d
	return m, tea.Quit
}

// markedIndices returns the marked positions, 1-based and sorted.
func (m *ReviewModel) markedIndices() []int {
	var indices []int
	for i, marked := range m.marked {
		if marked {
			indices = append(indices, i+1)
		}
	}
	sort.Ints(indices)
	return indices
}

// Decision returns the captured decision, if one was made.
func (m *ReviewModel) Decision() (domain.FeedbackDecision, bool) {
	if m.decision == nil {
		return domain.FeedbackDecision{}, false
	}
	return *m.decision, true
}

// View renders the review screen.
func (m *ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Retrieved guidance (%d)", len(m.docs))))
	b.WriteString("\n\n")

	for i, doc := range m.docs {
		b.WriteString(m.renderDoc(i, doc))
		b.WriteString("\n")
	}

	if m.mode != inputNone {
		label := "Keywords: "
		if m.mode == inputPartitions {
			label = "Partitions: "
		}
		b.WriteString("\n" + m.styles.Title.Render(label) + m.input.View() + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(
		"space mark | enter keep marked (or all) | a accept | r requery | p partition | w web | c cancel"))
	return b.String()
}

func (m *ReviewModel) renderDoc(i int, doc domain.Document) string {
	indicator := "  "
	if i == m.cursor {
		indicator = "> "
	}
	mark := "[ ] "
	if m.marked[i] {
		mark = "[x] "
	}

	title := doc.Section
	if title == "" {
		title = doc.Source
	}

	line := fmt.Sprintf("%s%s[%d] %s (%.2f)", indicator, mark, i+1, title, doc.Score)
	switch {
	case i == m.cursor:
		line = m.styles.Selected.Render(line)
	case m.marked[i]:
		line = m.styles.Marked.Render(line)
	default:
		line = m.styles.Normal.Render(line)
	}

	meta := fmt.Sprintf("      %s [%s]", doc.Source, doc.PartitionID)
	if i < len(m.commentary) && m.commentary[i] != "" {
		meta += " - " + m.commentary[i]
	}

	return line + "\n" + m.styles.Muted.Render(meta)
}
