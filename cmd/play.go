package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/term"

	"github.com/abhisek/quizgen/internal/grading"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/ui/components"
	"github.com/abhisek/quizgen/internal/ui/theme"
)

// playModel walks a quiz one MultiChoice at a time. answers grows as
// questions are answered; quitting early leaves it short.
type playModel struct {
	questions []store.StoredQuestion
	current   int
	choice    components.MultiChoice
	answers   []int
	next      key.Binding
	quit      key.Binding
	help      help.Model
	done      bool
}

func newPlayModel(qs []store.StoredQuestion) playModel {
	m := playModel{
		questions: qs,
		answers:   make([]int, 0, len(qs)),
		next:      key.NewBinding(key.WithKeys("enter", "space", "n"), key.WithHelp("enter", "next")),
		quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("esc", "stop")),
		help:      help.New(),
	}
	if len(qs) > 0 {
		m.choice = components.NewMultiChoice(qs[0])
	}
	return m
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.SetWidth(msg.Width)
		return m, nil

	case tea.KeyPressMsg:
		if key.Matches(msg, m.quit) {
			m.done = true
			return m, tea.Quit
		}
		if m.choice.Submitted {
			if !key.Matches(msg, m.next) {
				return m, nil
			}
			m.current++
			if m.current >= len(m.questions) {
				m.done = true
				return m, tea.Quit
			}
			m.choice = components.NewMultiChoice(m.questions[m.current])
			return m, nil
		}

		var cmd tea.Cmd
		m.choice, cmd = m.choice.Update(msg)
		if m.choice.Submitted {
			m.answers = append(m.answers, m.choice.ChosenIndex)
		}
		return m, cmd
	}
	return m, nil
}

func (m playModel) View() tea.View {
	return tea.NewView(m.content())
}

func (m playModel) content() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}

	var b strings.Builder
	q := m.questions[m.current]
	fmt.Fprintf(&b, "%s %s\n", theme.Selected.Render(fmt.Sprintf("%d/%d", m.current+1, len(m.questions))), theme.Hint.Render(q.Category))
	b.WriteString(m.choice.View())
	b.WriteString("\n")

	bindings := m.choice.Keys.ShortHelp()
	if m.choice.Submitted {
		b.WriteString(m.choice.Feedback() + "\n")
		printExplanation(&b, q)
		b.WriteString("\n")
		bindings = []key.Binding{m.next}
	}
	b.WriteString(m.help.ShortHelpView(append(bindings, m.quit)))
	b.WriteString("\n")
	return b.String()
}

// playInteractive runs the quiz as a Bubble Tea program and returns the
// answers given before the player finished or stopped.
func playInteractive(ctx context.Context, in io.Reader, out io.Writer, qs []store.StoredQuestion) ([]int, error) {
	p := tea.NewProgram(newPlayModel(qs),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run quiz: %w", err)
	}
	return final.(playModel).answers, nil
}

// playLines reads one answer per line. It serves piped or scripted input
// where there is no terminal to drive the interactive program.
func playLines(in io.Reader, out io.Writer, qs []store.StoredQuestion) []int {
	scanner := bufio.NewScanner(in)
	answers := make([]int, 0, len(qs))
	for i, q := range qs {
		printQuestion(out, i+1, len(qs), q, false)

		fmt.Fprint(out, "Your answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		choice := components.NewMultiChoice(q)
		choice.Submitted = true
		choice.ChosenIndex = grading.ParseLetter(strings.TrimSpace(scanner.Text()), len(q.Options))
		answers = append(answers, choice.ChosenIndex)

		fmt.Fprintln(out, choice.Feedback())
		printExplanation(out, q)
		fmt.Fprintln(out)
	}
	return answers
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
