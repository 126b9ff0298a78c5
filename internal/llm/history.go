package llm

import (
	"strings"

	"supportbot/internal/entities"
)

const (
	DefaultMaxContextMessages = 10
	DefaultMaxTurnChars       = 1000
	omittedMarker             = "..."
)

// BuildHistoryContext renders the conversation as "Customer:"/"Support:"
// lines. Long histories keep the first turn and the most recent maxMessages
// turns with a marker in between; each turn is cut to maxTurnChars runes.
func BuildHistoryContext(history []entities.ChatTurn, maxMessages, maxTurnChars int) string {
	if len(history) == 0 {
		return ""
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxContextMessages
	}
	if maxTurnChars <= 0 {
		maxTurnChars = DefaultMaxTurnChars
	}

	lines := make([]string, 0, maxMessages+2)
	if len(history) <= maxMessages+1 {
		for _, t := range history {
			lines = append(lines, renderTurn(t, maxTurnChars))
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, renderTurn(history[0], maxTurnChars), omittedMarker)
	for _, t := range history[len(history)-maxMessages:] {
		lines = append(lines, renderTurn(t, maxTurnChars))
	}
	return strings.Join(lines, "\n")
}

func renderTurn(t entities.ChatTurn, maxChars int) string {
	speaker := "Customer"
	if t.Sender == entities.SenderBot {
		speaker = "Support"
	}
	content := strings.Join(strings.Fields(t.Content), " ")
	if r := []rune(content); len(r) > maxChars {
		content = string(r[:maxChars]) + "…"
	}
	return speaker + ": " + content
}
