package pipeline

import (
	"fmt"
	"strings"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/index"
)

// DefaultMaxContextChars caps the retrieved-verse context included in a
// prompt so small local models are not flooded.
const DefaultMaxContextChars = 2000

// systemPrompt is the fixed system message for the generation chain.
const systemPrompt = "You are an assistant that must answer using only the provided verses and cite them by id."

// instruction is the grounding preamble of every generation prompt.
const instruction = `You are an assistant who answers with reference to the Bhagavad Gita.

GUIDELINES:
1. Use only the verses provided in the CONTEXT.
   - Treat CONTEXT as the sole knowledge source for Gita references.
   - Do not invent or recall verses outside the given IDs.

2. Citations:
   - When basing any part of your answer on a verse, include an inline citation in this exact format: (id=XYZ).
   - If summarizing multiple verses, cite each relevant id, and prefer giving the chapter and verse number before referencing it in the answer.

3. Quoting:
   - Keep direct quotes short (a phrase or line).
   - Prefer paraphrasing plus explanation over long copy-pastes.

4. Style of Answer:
   - Provide clear, decently detailed explanations in under 120 words.
   - Show how the verse connects to the user's question.
   - Encourage and guide the user in understanding, without being preachy.

5. Boundaries:
   - Do not fabricate chapter or verse numbers.
   - Do not rely on outside knowledge. Only use the given CONTEXT.`

// BuildPrompt assembles the grounded user prompt: instruction, retrieved
// verse context blocks tagged with their citation IDs, and the question.
// Context blocks are added in retrieval order until maxContextChars is
// reached; maxContextChars <= 0 means [DefaultMaxContextChars].
func BuildPrompt(question string, matches []index.Match, maxContextChars int) string {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}

	var parts []string
	total := 0
	for _, m := range matches {
		block := fmt.Sprintf("(id=%d, score=%.4f)\n%s\n---\n",
			m.Entry.ID, m.Score, strings.TrimSpace(m.Entry.Translation))
		total += len(block)
		if total > maxContextChars {
			break
		}
		parts = append(parts, block)
	}
	context := strings.Join(parts, "\n")

	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\nUSER QUERY:\n%s\n\nAnswer:",
		instruction, context, question)
}

// FormatResponse renders the display variant of a response: the cleaned
// answer followed by the top source verses with their citation IDs kept for
// traceability.
func FormatResponse(cleaned string, matches []index.Match) string {
	var b strings.Builder
	b.WriteString("=== AI Response ===\n")
	b.WriteString(strings.TrimSpace(cleaned))
	b.WriteString("\n\n")

	if len(matches) == 0 {
		b.WriteString("(No verses retrieved.)\n")
		return b.String()
	}

	b.WriteString("=== Top Source Verse(s) ===\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "\n(id=%d, score=%.4f)\n", m.Entry.ID, m.Score)
		if ref := m.Entry.Reference(); ref != "" {
			b.WriteString(ref + "\n")
		}
		b.WriteString(m.Entry.Translation + "\n---\n")
	}
	return b.String()
}
