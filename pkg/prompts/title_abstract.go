// Package prompts builds the fixed prompt contract for screening calls.
package prompts

import (
	"fmt"
	"strings"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// TitleAbstractSystemPrompt establishes the reasoning persona: a
// conservative, non-conversational decision engine that prefers unclear
// over fabrication and always supports its decision with a verbatim quote.
const TitleAbstractSystemPrompt = `You are a professional systematic reviewer (PRISMA 2020, Cochrane).
You are screening TITLE and ABSTRACT records according to a given protocol configuration.
You are NOT a chatbot; you are a decision engine.
Conservative behavior:
- If key information is missing, prefer UNCLEAR rather than inventing details.
- Always explain your reasoning in structured, concise reasons.
- Always provide at least one verbatim quote used for the decision.`

// BuildTitleAbstractPrompt builds the user prompt for one record. The
// protocol configuration is embedded verbatim as serialized JSON; only
// title/abstract-stage fields of the record are exposed, never full text.
func BuildTitleAbstractPrompt(protocolJSON string, record *models.Record) string {
	var b strings.Builder

	b.WriteString("Protocol configuration (JSON):\n\n")
	b.WriteString(protocolJSON)
	b.WriteString("\n\nRecord metadata:\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", record.Title))
	if record.Year != nil {
		b.WriteString(fmt.Sprintf("Year: %d\n", *record.Year))
	} else {
		b.WriteString("Year: \n")
	}
	b.WriteString(fmt.Sprintf("Language: %s\n", record.Language))
	b.WriteString("\nAbstract:\n")
	b.WriteString(record.Abstract)

	b.WriteString(`

Task:
Decide whether this record should be INCLUDED, EXCLUDED, or marked UNCLEAR with respect to the protocol.

Rules:
- Use ONLY information from title and abstract.
- If publication year or language clearly violate the protocol, you may EXCLUDE.
- If critical information (population, intervention, outcome, design) is missing or ambiguous, mark UNCLEAR.
- Always provide at least one verbatim quote from the title or abstract that supports your decision.
- Quote location is either "Title" or "Abstract".

Return ONLY valid JSON with this schema:

{
  "decision": "include" | "exclude" | "unclear",
  "reasons": [string],
  "verbatim_quote": string,
  "quote_location": "Title" | "Abstract",
  "qc_flag": boolean,
  "human_action_required": boolean
}`)

	return b.String()
}
