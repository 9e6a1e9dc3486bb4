package services

import (
	"fmt"
	"strings"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

// fallbackAnswer is the deterministic response used when generation
// fails or returns nothing usable.
const fallbackAnswer = "I could not generate an answer from the indexed documents."

// notFoundInstruction is what the model is told to reply when the
// context does not contain the answer.
const notFoundInstruction = "I cannot find the answer in the provided documents."

// packContext assembles retrieved chunks into a single context string
// within the character budget. Whole chunks are taken in rank order;
// when the next chunk would overflow, it is truncated to the remaining
// budget instead of dropped, and packing stops. Returns the chunks
// that contributed text, in order.
func packContext(chunks []domain.Chunk, budget int) ([]domain.Chunk, string) {
	var used []domain.Chunk
	var b strings.Builder

	remaining := budget
	for _, chunk := range chunks {
		if remaining <= 0 {
			break
		}

		text := chunk.Content
		if len(text) > remaining {
			text = truncateRunes(text, remaining)
			if text == "" {
				break
			}
		}

		if b.Len() > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(sourceHeader(chunk))
		b.WriteString("\n")
		b.WriteString(text)

		used = append(used, chunk)
		remaining -= len(text)

		if len(text) < len(chunk.Content) {
			break
		}
	}

	return used, b.String()
}

// truncateRunes cuts text to at most maxBytes without splitting a
// multi-byte rune.
func truncateRunes(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := 0
	for i := range text {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return strings.TrimSpace(text[:cut])
}

// sourceHeader labels a context block with its origin.
func sourceHeader(chunk domain.Chunk) string {
	if chunk.Page != nil {
		return fmt.Sprintf("[%s, page %d]", chunk.SourceID, *chunk.Page)
	}
	return fmt.Sprintf("[%s]", chunk.SourceID)
}

// answerSystemPrompt builds the grounding instructions for the model.
func answerSystemPrompt(language string) string {
	var b strings.Builder
	b.WriteString("You are a careful assistant answering questions about a document collection. ")
	b.WriteString("Answer using ONLY the information in the provided context. ")
	b.WriteString("Do not use outside knowledge and do not speculate. ")
	b.WriteString(fmt.Sprintf("If the context does not contain the answer, reply exactly: %q. ", notFoundInstruction))
	if language != "" {
		b.WriteString(fmt.Sprintf("Answer in %s. ", language))
	} else {
		b.WriteString("Answer in the language of the question. ")
	}
	b.WriteString("Cite the source labels from the context where relevant.")
	return b.String()
}

// answerUserPrompt combines the packed context and the question.
func answerUserPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n\n%s\n\nQuestion: %s", contextText, question)
}

// provenance converts consumed chunks into display references,
// deduplicated by (source, page) in rank order.
func provenance(chunks []domain.Chunk) []domain.ProvenanceRef {
	seen := make(map[string]bool, len(chunks))
	refs := make([]domain.ProvenanceRef, 0, len(chunks))

	for _, chunk := range chunks {
		key := chunk.ProvenanceKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, domain.ProvenanceRef{
			Text:     chunk.Content,
			SourceID: chunk.SourceID,
			Page:     chunk.Page,
		})
	}

	return refs
}
