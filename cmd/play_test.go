package cmd

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/grading"
	"github.com/abhisek/quizgen/internal/store"
)

func playQuestions() []store.StoredQuestion {
	return []store.StoredQuestion{
		{
			Category:    "remembering",
			Text:        "Which gas do plants absorb?",
			Explanation: "Carbon dioxide is fixed during photosynthesis.",
			Options: []store.StoredOption{
				{Text: "Oxygen"}, {Text: "Carbon dioxide", IsCorrect: true}, {Text: "Nitrogen"}, {Text: "Helium"},
			},
		},
		{
			Category:    "understanding",
			Text:        "Why are leaves green?",
			Explanation: "Chlorophyll reflects green light.",
			Options: []store.StoredOption{
				{Text: "Chlorophyll", IsCorrect: true}, {Text: "Water"}, {Text: "Soil"}, {Text: "Sunlight"},
			},
		},
	}
}

func press(t *testing.T, m tea.Model, msgs ...tea.KeyPressMsg) (playModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	pm, ok := m.(playModel)
	require.True(t, ok)
	return pm, cmd
}

func letter(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func enter() tea.KeyPressMsg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

func TestPlayModel_AnswersEveryQuestion(t *testing.T) {
	m, cmd := press(t, newPlayModel(playQuestions()), letter('b'))
	assert.Nil(t, cmd)
	assert.Equal(t, []int{1}, m.answers)
	assert.Contains(t, m.content(), "Correct")
	assert.Contains(t, m.content(), "Carbon dioxide is fixed")

	m, _ = press(t, m, enter())
	assert.Equal(t, 1, m.current)
	assert.Contains(t, m.content(), "Why are leaves green?")

	m, _ = press(t, m, tea.KeyPressMsg{Code: tea.KeyDown}, enter())
	assert.Equal(t, []int{1, 1}, m.answers)

	m, cmd = press(t, m, enter())
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	res := grading.Grade(playQuestions(), m.answers)
	assert.Equal(t, 1, res.Correct)
}

func TestPlayModel_OtherKeysWaitAfterAnswer(t *testing.T) {
	m, _ := press(t, newPlayModel(playQuestions()), letter('a'), letter('b'), letter('x'))
	assert.Equal(t, 0, m.current)
	assert.Equal(t, []int{0}, m.answers)
}

func TestPlayModel_SkipRecordsUnanswered(t *testing.T) {
	m, _ := press(t, newPlayModel(playQuestions()), letter('s'))
	assert.Equal(t, []int{grading.Unanswered}, m.answers)
	assert.Contains(t, m.content(), "(skipped)")
}

func TestPlayModel_QuitKeepsPartialAnswers(t *testing.T) {
	m, cmd := press(t, newPlayModel(playQuestions()), letter('b'), enter(), tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, m.done)
	assert.Equal(t, []int{1}, m.answers)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.content())
}

func TestPlayLines(t *testing.T) {
	var out strings.Builder
	answers := playLines(strings.NewReader("B\n?\n"), &out, playQuestions())

	assert.Equal(t, []int{1, grading.Unanswered}, answers)
	assert.Contains(t, out.String(), "Correct")
	assert.Contains(t, out.String(), "(skipped) Answer: A")
	assert.Contains(t, out.String(), "Chlorophyll reflects green light.")
}

func TestPlayLines_InputClosedEarly(t *testing.T) {
	var out strings.Builder
	answers := playLines(strings.NewReader("a\n"), &out, playQuestions())

	assert.Equal(t, []int{0}, answers)
	assert.Contains(t, out.String(), "(input closed)")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(strings.NewReader("a\n")))
}
