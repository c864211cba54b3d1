// Package components holds Bubble Tea widgets shared by interactive
// commands.
package components

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizgen/internal/grading"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/ui/theme"
)

// MultiChoiceKeys are the bindings a MultiChoice reacts to. Option letters
// and digits answer directly.
type MultiChoiceKeys struct {
	Up     key.Binding
	Down   key.Binding
	Submit key.Binding
	Skip   key.Binding
}

// DefaultMultiChoiceKeys returns arrow/vim navigation, enter to answer and
// s to skip.
func DefaultMultiChoiceKeys() MultiChoiceKeys {
	return MultiChoiceKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/a-d", "answer")),
		Skip:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
	}
}

// ShortHelp lists the bindings for a help footer.
func (k MultiChoiceKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Submit, k.Skip}
}

// MultiChoice is a multiple-choice selector for one stored question.
type MultiChoice struct {
	Question     store.StoredQuestion
	CorrectIndex int
	Selected     int
	Submitted    bool
	ChosenIndex  int
	Keys         MultiChoiceKeys
}

// NewMultiChoice creates a selector for q with nothing chosen yet.
func NewMultiChoice(q store.StoredQuestion) MultiChoice {
	return MultiChoice{
		Question:     q,
		CorrectIndex: q.CorrectIndex(),
		ChosenIndex:  grading.Unanswered,
		Keys:         DefaultMultiChoiceKeys(),
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(kmsg, m.Keys.Up):
		if m.Selected > 0 {
			m.Selected--
		}
	case key.Matches(kmsg, m.Keys.Down):
		if m.Selected < len(m.Question.Options)-1 {
			m.Selected++
		}
	case key.Matches(kmsg, m.Keys.Submit):
		m.Submitted = true
		m.ChosenIndex = m.Selected
	case key.Matches(kmsg, m.Keys.Skip):
		m.Submitted = true
		m.ChosenIndex = grading.Unanswered
	default:
		if i := grading.ParseLetter(kmsg.String(), len(m.Question.Options)); i != grading.Unanswered {
			m.Selected = i
			m.Submitted = true
			m.ChosenIndex = i
		}
	}

	return m, nil
}

// View renders the question and its options. Once submitted, the correct
// option turns green and a wrong choice red.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question.Text))
	b.WriteString("\n\n")

	for i, opt := range m.Question.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, grading.Letter(i), opt.Text)

		var style lipgloss.Style
		switch {
		case m.Submitted && i == m.CorrectIndex:
			style = theme.Correct
		case m.Submitted && i == m.ChosenIndex:
			style = theme.Incorrect
		case m.Submitted:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		default:
			style = lipgloss.NewStyle().Foreground(theme.Text)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

// Feedback is the verdict line shown after an answer, empty before.
func (m MultiChoice) Feedback() string {
	switch {
	case !m.Submitted:
		return ""
	case m.ChosenIndex == grading.Unanswered:
		return theme.Hint.Render("(skipped) Answer: " + grading.Letter(m.CorrectIndex))
	case m.IsCorrect():
		return theme.Correct.Render("✓ Correct!")
	default:
		return theme.Incorrect.Render("✗ Wrong.") + " Answer: " + grading.Letter(m.CorrectIndex)
	}
}

// IsCorrect returns true if the user chose the correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.ChosenIndex == m.CorrectIndex
}
