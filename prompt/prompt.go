// Package prompt renders the grounded question-answering prompt.
package prompt

import (
	"fmt"
	"strings"
)

// Refusal is the reply the model must give when the chunks do not contain the answer.
const Refusal = "I cannot find this information in the provided document.\n\n" +
	"Would you like me to answer this question using my general AI knowledge instead?"

// ChunkSeparator separates labelled chunks in the rendered context.
const ChunkSeparator = "\n\n---\n\n"

const answerPromptTemplate = `You are an assistant answering questions about a PDF document. Answer STRICTLY from the document excerpts below.

Rules:
- Use ONLY information found in the excerpts.
- When the answer is present, give it and cite the excerpt(s) you relied on by number (for example "According to Chunk 2...").
- When the answer is NOT present, reply with exactly this text and nothing else:
%s
- Be concise but complete; include every relevant detail from the excerpts.
- Quote the document where it helps.
- Do not invent or infer facts the excerpts do not state.

Document excerpts:
%s

Question: %s

Answer (cite chunk numbers when answering from the document):`

// Label returns the heading for the chunk at 1-based rank i.
func Label(i int) string {
	return fmt.Sprintf("[Chunk %d]", i)
}

// Context labels chunks in rank order and joins them with ChunkSeparator.
func Context(chunks []string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = Label(i+1) + "\n" + c
	}
	return strings.Join(parts, ChunkSeparator)
}

// Render builds the prompt for question over the ranked chunks. The output is
// a pure function of its arguments.
func Render(chunks []string, question string) string {
	return fmt.Sprintf(answerPromptTemplate, indent(Refusal), Context(chunks), question)
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
