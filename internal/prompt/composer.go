// Package prompt builds the message sequence sent to the completion service.
package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
)

const (
	contextPreamble = "Relevant context for this interaction:"
	queryPrefix     = "\n\nUser query: "
)

// Compose returns the system instruction, the history verbatim, and a final
// user message carrying the rendered context fields and the prompt.
func Compose(p persona.Persona, history []domain.Turn, fields []domain.Field, userPrompt string) []domain.Turn {
	messages := make([]domain.Turn, 0, len(history)+2)
	messages = append(messages, domain.Turn{Role: domain.RoleSystem, Content: p.SystemInstruction})
	messages = append(messages, history...)
	messages = append(messages, domain.Turn{Role: domain.RoleUser, Content: UserMessage(fields, userPrompt)})
	return messages
}

// UserMessage renders the final user turn. Nil-valued fields are skipped.
func UserMessage(fields []domain.Field, userPrompt string) string {
	var b strings.Builder
	b.WriteString(contextPreamble)
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %v", Label(f.Key), f.Value)
	}
	b.WriteString(queryPrefix)
	b.WriteString(userPrompt)
	return b.String()
}

// Label turns a snake_case key into a sentence-case label:
// "company_strategic_goals" becomes "Company strategic goals".
func Label(key string) string {
	s := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
