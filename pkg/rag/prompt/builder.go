package prompt

import (
	"fmt"
	"strings"

	"agentic-rag-be/pkg/llm"
)

// maxHistoryTurns bounds how much conversation context flows into the
// answer prompt. Older turns are dropped, newest kept.
const maxHistoryTurns = 8

// GroundingInstruction is the system message for answer generation. It
// pins the model to the supplied excerpts and mandates an explicit
// refusal phrase when the answer is not grounded.
const GroundingInstruction = `You are a precise assistant that answers questions strictly from the provided documents.

Rules:
1. Use ONLY the information in the document excerpts below. Do not use outside knowledge.
2. Do not speculate, infer beyond the text, or fill gaps with assumptions.
3. If the excerpts do not contain the answer, reply exactly: "I cannot find this information in the provided documents."
4. Be concise and direct. Cite facts as they appear in the excerpts.`

// AnswerBuilder assembles the grounded user prompt for answer
// generation: recent conversation turns, labeled document excerpts,
// then the question.
type AnswerBuilder struct {
	query   string
	context []string
	history []llm.Message
}

func NewAnswerBuilder(query string, context []string, history []llm.Message) *AnswerBuilder {
	return &AnswerBuilder{
		query:   query,
		context: context,
		history: history,
	}
}

func (b *AnswerBuilder) Build() string {
	var prompt strings.Builder

	b.writeHistory(&prompt)
	b.writeDocuments(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *AnswerBuilder) writeHistory(prompt *strings.Builder) {
	history := b.history
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) == 0 {
		return
	}

	prompt.WriteString("<conversation_history>\n")
	for _, msg := range history {
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</conversation_history>\n\n")
}

func (b *AnswerBuilder) writeDocuments(prompt *strings.Builder) {
	if len(b.context) == 0 {
		return
	}

	prompt.WriteString("<documents>\n")
	for i, text := range b.context {
		fmt.Fprintf(prompt, "[Excerpt %d]\n%s\n\n", i+1, text)
	}
	prompt.WriteString("</documents>\n\n")
}

func (b *AnswerBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("Question: ")
	prompt.WriteString(b.query)
	prompt.WriteString("\n\nAnswer based only on the documents above:")
}

// Rewrite builds the query-expansion instruction. The response is
// expected as bare variations, one per line, no numbering.
func Rewrite(query string, n int) string {
	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Generate %d alternative phrasings of the following search query.\n", n)
	prompt.WriteString("Each variation should preserve the original meaning while using different wording,\n")
	prompt.WriteString("so that documents phrased differently are still found.\n\n")
	fmt.Fprintf(&prompt, "Query: %s\n\n", query)
	prompt.WriteString("Return only the variations, one per line, with no numbering or commentary.")

	return prompt.String()
}

// Validation builds the groundedness-check instruction. The response is
// expected as a JSON object with is_correct and reason fields.
func Validation(question string, answer string, context []string) string {
	var prompt strings.Builder

	prompt.WriteString("You are verifying whether an answer is fully supported by the given context.\n\n")
	prompt.WriteString("<context>\n")
	prompt.WriteString(strings.Join(context, "\n\n"))
	prompt.WriteString("\n</context>\n\n")
	fmt.Fprintf(&prompt, "Question: %s\n", question)
	fmt.Fprintf(&prompt, "Answer: %s\n\n", answer)
	prompt.WriteString("Is every claim in the answer verifiable from the context?\n")
	prompt.WriteString(`Respond with JSON only: {"is_correct": true or false, "reason": "short explanation"}`)

	return prompt.String()
}

// Analysis builds the query-analysis instruction used for routing
// diagnostics. The response is expected as a JSON object.
func Analysis(query string) string {
	var prompt strings.Builder

	prompt.WriteString("Classify the following search query.\n\n")
	fmt.Fprintf(&prompt, "Query: %s\n\n", query)
	prompt.WriteString("Respond with JSON only:\n")
	prompt.WriteString(`{"intent": "factual|summary|comparison|procedural|conversational", "complexity": "simple|moderate|complex", "keywords": ["..."]}`)

	return prompt.String()
}
