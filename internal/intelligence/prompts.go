package intelligence

import (
	"fmt"
	"strings"

	"codeatlas/internal/constants"
)

func relevanceFilterPrompt(originalPrompt string, questions []string) string {
	var b strings.Builder
	b.WriteString("A user asked the following question about a codebase:\n\n")
	b.WriteString(originalPrompt)
	b.WriteString("\n\nBelow are previously answered questions about the same codebase. ")
	b.WriteString("Pick the ONE question whose answer would be most useful for answering the user, ")
	b.WriteString("or respond with exactly " + constants.NoMatch + " if none of them would help.\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\nRespond with the chosen question text verbatim, or " + constants.NoMatch + ". Nothing else.")
	return b.String()
}

func extractionPrompt(answer string) string {
	return fmt.Sprintf(`Below is an answer about a codebase. Extract the concrete code entities it references.

Return JSON with this exact shape (omit nothing, use empty arrays when a category has no entries):
{
  "function_names": [{"name": "...", "relevancy": 0.0}],
  "file_names": [{"name": "...", "relevancy": 0.0}],
  "datamodel_names": [{"name": "...", "relevancy": 0.0}],
  "endpoint_names": [{"name": "...", "relevancy": 0.0}],
  "page_names": [{"name": "...", "relevancy": 0.0}]
}

relevancy is 0.0 to 1.0: how central the entity is to the answer. Only include entities literally named in the answer.

Answer:
%s`, answer)
}

func rephrasePrompt(question, answer, persona string) string {
	return fmt.Sprintf(`Rephrase the following question and answer about a codebase for a %s audience. Keep every technical fact intact; change only emphasis, vocabulary and level of detail.

Return JSON: {"question": "...", "answer": "..."}

Question: %s

Answer:
%s`, personaDescription(persona), question, answer)
}

func decomposePrompt(prompt string) string {
	return fmt.Sprintf(`A user wants to make the following change to a codebase:

%s

Break this down into concrete implementation tasks, and for each area the tasks touch, formulate a question about the existing codebase whose answer a developer would need before starting.

Return JSON: {"tasks": ["..."], "questions": ["..."]}`, prompt)
}

func personaDescription(persona string) string {
	switch persona {
	case PersonaSeniorDev:
		return "senior developer (terse, assumes deep familiarity with the stack)"
	case PersonaJuniorDev:
		return "junior developer (step by step, spells out conventions and gotchas)"
	case PersonaCEO:
		return "non-technical executive (business impact, no implementation detail)"
	case PersonaAgent:
		return "coding agent (dense, file paths and symbol names over prose)"
	default:
		return "product manager (feature-level, light on implementation detail)"
	}
}
