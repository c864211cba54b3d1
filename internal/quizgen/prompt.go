package quizgen

import (
	"fmt"
	"strings"
)

const generatorSystemPrompt = `You are an experienced teacher who writes fair, precise multiple-choice quizzes.
Your task is to read a source text and write quiz questions that can be answered from that text alone.`

const formatRules = `Rules:
- Every question has exactly 4 options and exactly one option is correct.
- Vary the position of the correct option across questions. Do not always put it first or last.
- Distractors must be plausible to someone who skimmed the text, never absurd.
- Every question carries a source_quote copied verbatim from the text that justifies the correct answer.
- Every question carries a short explanation of why the correct option is correct.
- Do not repeat a question or ask the same fact twice in different words.`

const formatInstructions = `Respond with a single JSON object and nothing else, in this shape:
{
  "questions": [
    {
      "question_text": "string",
      "source_quote": "string",
      "explanation": "string",
      "options": [
        {"option_text": "string", "is_correct": false},
        {"option_text": "string", "is_correct": true},
        {"option_text": "string", "is_correct": false},
        {"option_text": "string", "is_correct": false}
      ]
    }
  ]
}`

// buildGeneratorMessage constructs the user message for one category.
func buildGeneratorMessage(cat Category, count int, sourceText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write %d questions about the source text below.\n\n", count)
	fmt.Fprintf(&b, "Cognitive skill: %s\n", cat)
	b.WriteString(cat.spec().instruction)
	b.WriteString("\n\n")
	b.WriteString(formatRules)
	b.WriteString("\n\n")
	b.WriteString(formatInstructions)
	b.WriteString("\n\nSource text:\n\"\"\"\n")
	b.WriteString(sourceText)
	b.WriteString("\n\"\"\"")

	return b.String()
}

const refinerSystemPrompt = `You are a meticulous quiz editor. You improve existing multiple-choice questions
without changing what they test.`

const refinerRules = `For every question in the input:
- Verify that the option marked correct is actually correct, including nuance. Fix the marking if it is not.
- Replace at least one distractor with a more sophisticated alternative that a careless reader could confuse with the answer.
- Rewrite the explanation so it says why the correct option is right in the context of the source, and ideally why the strongest distractor is wrong.
- Every question must have a non-empty explanation.
- Keep exactly 4 options with exactly one correct.
- Keep source_quote unchanged.
- Return the questions in the same order and the same number as the input.`

// buildRefinerMessage embeds the serialized question set in the editor prompt.
func buildRefinerMessage(serialized string) string {
	var b strings.Builder

	b.WriteString(refinerRules)
	b.WriteString("\n\n")
	b.WriteString(formatInstructions)
	b.WriteString("\n\nQuestions to edit:\n")
	b.WriteString(serialized)

	return b.String()
}
