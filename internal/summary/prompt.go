package summary

import (
	"fmt"
	"strings"
)

const systemPrompt = `Eres un asistente jurídico que resume documentos del Boletín Oficial del Estado (BOE) para personas sin formación legal.`

const instructions = `Resume el siguiente documento del BOE en español, en un máximo de cinco frases.
Indica qué se regula, a quién afecta, los plazos o importes relevantes y la fecha de entrada en vigor si aparece.
No inventes datos que no estén en el texto. Responde solo con el resumen.`

// BuildPrompt assembles the user message for a document, truncating the
// text to MaxInputRunes.
func BuildPrompt(title, text string) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Título: %s\n", title))
	sb.WriteString("---\n")
	sb.WriteString(limitRunes(strings.TrimSpace(text), MaxInputRunes))
	return sb.String()
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Validate rejects summaries that are too short or that report a failure
// instead of summarizing. "Error" only counts as a leading word, since
// "corrección de errores" is a routine BOE title.
func Validate(summary string) error {
	s := strings.TrimSpace(summary)
	if len([]rune(s)) < 20 {
		return fmt.Errorf("%w: too short", ErrInvalidSummary)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "error") || strings.Contains(lower, "no se pudo") {
		return fmt.Errorf("%w: model reported a failure", ErrInvalidSummary)
	}
	return nil
}
